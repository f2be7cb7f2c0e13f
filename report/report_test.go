package report

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/godsrf/dsrf"
	"github.com/godsrf/dsrf/schema"
)

const reportSchemaDoc = `
version: "3.0"
profile: Ugc
rows:
  HEAD:
    class: head
    cells:
      - {name: RecordType, type: ignore}
      - {name: MessageVersion, type: string, required: true}
      - {name: FileNumber, type: integer}
      - {name: NumberOfFiles, type: integer}
      - {name: ServiceDescription, type: string}
      - {name: RecipientPartyId, type: string}
      - {name: RecipientName, type: string}
      - {name: SenderPartyId, type: string}
      - {name: SenderName, type: string}
  AS01:
    class: body
    cells:
      - {name: RecordType, type: ignore}
      - {name: BlockId, type: integer, required: true}
      - {name: Title, type: string}
  FOOT:
    class: foot
    cells:
      - {name: RecordType, type: ignore}
      - {name: NumberOfLines, type: integer}
`

func loadReportSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.LoadYAML([]byte(reportSchemaDoc))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// headLine builds a HEAD row whose cells agree with the given name parts.
func headLine(fileNumber, totalFiles int) string {
	return fmt.Sprintf("HEAD\t3.0\t%d\t%d\tSrv\tRec\tRecName\tSen\tSenName",
		fileNumber, totalFiles)
}

func writeReportFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := []byte(strings.Join(lines, "\n"))
	if strings.HasSuffix(name, ".gz") {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(content); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		content = buf.Bytes()
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func drain(t *testing.T, run *Run) []*dsrf.Block {
	t.Helper()
	var blocks []*dsrf.Block
	for b := range run.Blocks {
		blocks = append(blocks, b)
	}
	return blocks
}

func TestManager_ParseReport(t *testing.T) {
	dir := t.TempDir()
	f1 := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141005.tsv",
		headLine(1, 2),
		"AS01\t1\tFirst",
		"AS01\t1\tSecond",
		"AS01\t2\tThird",
		"FOOT\t5",
	)
	f2 := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_2of2_20150219T141006.tsv.gz",
		headLine(2, 2),
		"AS01\t7\tSeventh",
		"FOOT\t3",
	)

	m := NewManager(loadReportSchema(t))
	// Paths deliberately out of order; the manager sorts by file number.
	run, err := m.ParseReport(context.Background(), []string{f2, f1})
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}

	if _, err := uuid.Parse(run.ID); err != nil {
		t.Errorf("run ID %q is not a uuid: %v", run.ID, err)
	}
	if len(run.Files) != 2 || run.Files[0].FileNumber != 1 || run.Files[1].FileNumber != 2 {
		t.Fatalf("run.Files out of order: %+v", run.Files)
	}

	blocks := drain(t, run)
	if len(blocks) != 7 {
		t.Fatalf("len(blocks) = %d; want 7", len(blocks))
	}
	wantFiles := []int{1, 1, 1, 1, 2, 2, 2}
	wantTypes := []dsrf.BlockType{
		dsrf.BlockHead, dsrf.BlockBody, dsrf.BlockBody, dsrf.BlockFoot,
		dsrf.BlockHead, dsrf.BlockBody, dsrf.BlockFoot,
	}
	for i, b := range blocks {
		if b.FileNumber != wantFiles[i] {
			t.Errorf("blocks[%d].FileNumber = %d; want %d", i, b.FileNumber, wantFiles[i])
		}
		if b.Type != wantTypes[i] {
			t.Errorf("blocks[%d].Type = %s; want %s", i, b.Type, wantTypes[i])
		}
	}
	if blocks[5].Number != 7 || blocks[5].RowCount() != 1 {
		t.Errorf("gz body block = %s; want BODY block 7 with 1 row", blocks[5])
	}

	if err := run.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
	if res := run.Result(); !res.Valid || len(res.Issues) != 0 {
		t.Errorf("result valid=%t issues=%v; want a clean result", res.Valid, res.Issues)
	}
}

func TestManager_BlockOrderAcrossWorkers(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 4)
	for i := range paths {
		n := i + 1
		name := fmt.Sprintf("DSR_Rec_Sen_Srv_2015-02_AT_%dof4_2015021%dT141005.tsv", n, n)
		paths[i] = writeReportFile(t, dir, name,
			headLine(n, 4),
			"AS01\t1\tA",
			"AS01\t2\tB",
			"FOOT\t5",
		)
	}

	m := NewManager(loadReportSchema(t), dsrf.WithWorkers(4), dsrf.WithChannelBuffer(8))
	run, err := m.ParseReport(context.Background(), paths)
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}

	lastFile := 0
	lastBody := int64(0)
	for b := range run.Blocks {
		if b.FileNumber < lastFile {
			t.Fatalf("file %d emitted after file %d", b.FileNumber, lastFile)
		}
		if b.FileNumber > lastFile {
			lastFile = b.FileNumber
			lastBody = 0
		}
		if b.Type == dsrf.BlockBody {
			if b.Number <= lastBody {
				t.Fatalf("body block %d of file %d out of order", b.Number, b.FileNumber)
			}
			lastBody = b.Number
		}
	}
	if lastFile != 4 {
		t.Errorf("last file = %d; want 4", lastFile)
	}
	if !run.Result().Valid {
		t.Errorf("result invalid: %v", run.Result().Issues)
	}
}

func TestManager_InvalidName(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141005.tsv")
	bad := filepath.Join(dir, "sales-february.tsv")

	m := NewManager(loadReportSchema(t))
	run, err := m.ParseReport(context.Background(), []string{good, bad})
	if run != nil {
		t.Errorf("run = %v; want nil", run)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v; want *ValidationError", err)
	}
	issues := ve.Result.Issues
	if len(issues) != 1 {
		t.Fatalf("issues = %v; want 1", issues)
	}
	if issues[0].Code != dsrf.CodeFileNameInvalid {
		t.Errorf("code = %s; want %s", issues[0].Code, dsrf.CodeFileNameInvalid)
	}
	if !strings.Contains(issues[0].Diagnostics, "does not match the expected format") {
		t.Errorf("diagnostics = %q", issues[0].Diagnostics)
	}
}

func TestManager_CrossFileMismatch(t *testing.T) {
	m := NewManager(loadReportSchema(t))
	_, err := m.ParseReport(context.Background(), []string{
		"DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141005.tsv",
		"DSR_Other_Sen_Srv_2015-02_AT_2of2_20150219T141006.tsv",
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v; want *ValidationError", err)
	}
	issues := ve.Result.Issues
	if len(issues) != 1 {
		t.Fatalf("issues = %v; want 1", issues)
	}
	want := `The file name component MessageRecipient is expected to match across all files ` +
		`of the report ("Rec" != "Other" in file "DSR_Other_Sen_Srv_2015-02_AT_2of2_20150219T141006.tsv").`
	if issues[0].Diagnostics != want {
		t.Errorf("diagnostics = %q;\nwant          %q", issues[0].Diagnostics, want)
	}
	if issues[0].Code != dsrf.CodeFileNameMismatch {
		t.Errorf("code = %s; want %s", issues[0].Code, dsrf.CodeFileNameMismatch)
	}
}

func TestManager_MissingFileNumber(t *testing.T) {
	m := NewManager(loadReportSchema(t))
	_, err := m.ParseReport(context.Background(), []string{
		"DSR_Rec_Sen_Srv_2015-02_AT_1of3_20150219T141005.tsv",
		"DSR_Rec_Sen_Srv_2015-02_AT_3of3_20150219T141006.tsv",
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v; want *ValidationError", err)
	}
	issues := ve.Result.Issues
	if len(issues) != 1 {
		t.Fatalf("issues = %v; want 1", issues)
	}
	want := "The report declares 3 files, but file number 2 is missing."
	if issues[0].Diagnostics != want {
		t.Errorf("diagnostics = %q; want %q", issues[0].Diagnostics, want)
	}
	if issues[0].Code != dsrf.CodeFileSetIncomplete {
		t.Errorf("code = %s; want %s", issues[0].Code, dsrf.CodeFileSetIncomplete)
	}
}

func TestManager_DuplicateFileNumber(t *testing.T) {
	m := NewManager(loadReportSchema(t))
	_, err := m.ParseReport(context.Background(), []string{
		"DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141005.tsv",
		"DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141006.tsv",
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v; want *ValidationError", err)
	}
	var got []string
	for _, issue := range ve.Result.Issues {
		got = append(got, issue.Diagnostics)
	}
	want := []string{
		"File number 1 appears more than once in the report.",
		"The report declares 2 files, but file number 2 is missing.",
	}
	if len(got) != len(want) {
		t.Fatalf("issues = %q; want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("issue[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestManager_HeadMismatchWarnings(t *testing.T) {
	dir := t.TempDir()
	// FileNumber, ServiceDescription and the sender cells disagree with the
	// file name; RecipientName saves the recipient check.
	path := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of1_20150219T141005.tsv",
		"HEAD\t3.0\t9\t1\tWrong\tNope\tRec\tNope2",
		"AS01\t1\tTitle",
		"FOOT\t4",
	)

	m := NewManager(loadReportSchema(t))
	run, err := m.ParseReport(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}
	drain(t, run)

	res := run.Result()
	if !res.Valid {
		t.Error("warnings must not invalidate the result")
	}
	var got []string
	for _, issue := range res.Issues {
		if issue.Severity != dsrf.SeverityWarning || issue.Code != dsrf.CodeHeadMismatch {
			t.Errorf("issue = %+v; want a HEAD_MISMATCH warning", issue)
		}
		if issue.RowNumber != 1 {
			t.Errorf("RowNumber = %d; want 1", issue.RowNumber)
		}
		got = append(got, issue.Diagnostics)
	}
	want := []string{
		`The HEAD cell FileNumber value "9" does not match the file name component x ("1").`,
		`The HEAD cell ServiceDescription value "Wrong" does not match the file name component ServiceDescription ("Srv").`,
		`The HEAD cell SenderPartyId value "Nope2" does not match the file name component MessageSender ("Sen").`,
	}
	if len(got) != len(want) {
		t.Fatalf("warnings = %q;\nwant %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("warning[%d] = %q;\nwant         %q", i, got[i], want[i])
		}
	}
}

func TestManager_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	f1 := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141005.tsv",
		headLine(1, 2),
		"AS01\t1\tOnly",
		"FOOT\t4",
	)
	// Valid name, but never written to disk.
	f2 := filepath.Join(dir, "DSR_Rec_Sen_Srv_2015-02_AT_2of2_20150219T141006.tsv")

	m := NewManager(loadReportSchema(t))
	run, err := m.ParseReport(context.Background(), []string{f1, f2})
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}
	blocks := drain(t, run)

	if len(blocks) != 3 {
		t.Errorf("len(blocks) = %d; want 3 from the readable file", len(blocks))
	}
	res := run.Result()
	if !res.HasFatal() {
		t.Fatalf("result has no fatal issue: %v", res.Issues)
	}
	fatal := res.Issues[len(res.Issues)-1]
	if fatal.FileName != filepath.Base(f2) {
		t.Errorf("fatal issue file = %q; want %q", fatal.FileName, filepath.Base(f2))
	}
	if fatal.Code != dsrf.CodeReadFailed {
		t.Errorf("fatal issue code = %s; want %s", fatal.Code, dsrf.CodeReadFailed)
	}
}

func TestManager_RowIssuesMerge(t *testing.T) {
	dir := t.TempDir()
	f1 := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141005.tsv",
		headLine(1, 2),
		"AS01\t1\tGood",
		"FOOT\t4",
	)
	f2 := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_2of2_20150219T141006.tsv",
		headLine(2, 2),
		"AS01\tabc\tBroken",
		"AS01\t2\tGood",
		"FOOT\t5",
	)

	m := NewManager(loadReportSchema(t))
	run, err := m.ParseReport(context.Background(), []string{f1, f2})
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}
	drain(t, run)

	res := run.Result()
	if res.Valid {
		t.Error("result valid despite a dropped row")
	}
	if len(res.Issues) != 1 {
		t.Fatalf("issues = %v; want 1", res.Issues)
	}
	issue := res.Issues[0]
	if issue.FileName != filepath.Base(f2) {
		t.Errorf("issue file = %q; want %q", issue.FileName, filepath.Base(f2))
	}
	if !strings.Contains(issue.Diagnostics, `The block id "abc"`) {
		t.Errorf("diagnostics = %q", issue.Diagnostics)
	}
}

func TestManager_SharedMetrics(t *testing.T) {
	dir := t.TempDir()
	f1 := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of2_20150219T141005.tsv",
		headLine(1, 2),
		"AS01\t1\tA",
		"FOOT\t4",
	)
	f2 := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_2of2_20150219T141006.tsv",
		headLine(2, 2),
		"AS01\t5\tB",
		"FOOT\t4",
	)

	metrics := dsrf.NewMetrics()
	m := NewManager(loadReportSchema(t), dsrf.WithMetrics(metrics))
	run, err := m.ParseReport(context.Background(), []string{f1, f2})
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}
	drain(t, run)

	if got := metrics.FilesTotal(); got != 2 {
		t.Errorf("FilesTotal = %d; want 2", got)
	}
	if got := metrics.BlocksTotal(); got != 6 {
		t.Errorf("BlocksTotal = %d; want 6", got)
	}
	if got := metrics.BodyBlocks(); got != 2 {
		t.Errorf("BodyBlocks = %d; want 2", got)
	}
}

func TestManager_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of1_20150219T141005.tsv",
		headLine(1, 1),
		"AS01\t1\tA",
		"AS01\t2\tB",
		"FOOT\t5",
	)

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(loadReportSchema(t))
	run, err := m.ParseReport(ctx, []string{path})
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}

	// Nobody reads the channel, so the run is parked at its first emit.
	cancel()
	deadline := time.After(2 * time.Second)
	for run.Err() == nil {
		select {
		case <-deadline:
			t.Fatal("run never observed the cancellation")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !errors.Is(run.Err(), context.Canceled) {
		t.Fatalf("Err() = %v; want context.Canceled", run.Err())
	}
	drain(t, run)
}

func TestManager_EmptyPaths(t *testing.T) {
	m := NewManager(loadReportSchema(t))
	if _, err := m.ParseReport(context.Background(), nil); err == nil {
		t.Fatal("ParseReport(nil) succeeded; want an error")
	}
}

func TestManager_ParseReportAll(t *testing.T) {
	dir := t.TempDir()
	path := writeReportFile(t, dir, "DSR_Rec_Sen_Srv_2015-02_AT_1of1_20150219T141005.tsv",
		headLine(1, 1),
		"AS01\t1\tA",
		"FOOT\t4",
	)

	m := NewManager(loadReportSchema(t))
	blocks, res, err := m.ParseReportAll(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("ParseReportAll() error = %v", err)
	}
	if len(blocks) != 3 {
		t.Errorf("len(blocks) = %d; want 3", len(blocks))
	}
	if !res.Valid {
		t.Errorf("result invalid: %v", res.Issues)
	}

	blocks, res, err = m.ParseReportAll(context.Background(), []string{"nonsense.tsv"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v; want *ValidationError", err)
	}
	if blocks != nil {
		t.Errorf("blocks = %v; want nil", blocks)
	}
	if res == nil || len(res.Issues) != 1 {
		t.Errorf("result = %+v; want the single name issue", res)
	}
}
