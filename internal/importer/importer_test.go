package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/budget/internal/model"
	"github.com/cleared-dev/budget/internal/normalize"
)

func newParser() *Parser {
	return NewParser(normalize.Default())
}

func readTestdata(t *testing.T, name string) FileResult {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	defer f.Close()

	res, err := newParser().ReadFile(f)
	require.NoError(t, err)
	return res
}

func TestClassify(t *testing.T) {
	tests := []struct {
		header []string
		want   Origin
	}{
		{[]string{"Date", "Description", "Original Description", "Category", "Amount", "Status"}, OriginUSAA},
		{[]string{"DATE"}, OriginUSAA},
		{[]string{"\ufeffDate", "Description"}, OriginUSAA},
		{[]string{"Transaction Date", "Posted Date", "Card No.", "Description", "Category", "Debit", "Credit"}, OriginCapitalOne},
		{[]string{" transaction date "}, OriginCapitalOne},
	}
	for _, tt := range tests {
		got, err := Classify(tt.header)
		require.NoError(t, err, "header %v", tt.header)
		assert.Equal(t, tt.want, got, "header %v", tt.header)
	}
}

func TestDefaultHeaders_IsACopy(t *testing.T) {
	headers := DefaultHeaders()
	require.Len(t, headers, 2)
	headers[0] = HeaderLabel{Label: "posting date", Origin: OriginCapitalOne}

	got, err := Classify([]string{"Date"})
	require.NoError(t, err)
	assert.Equal(t, OriginUSAA, got)

	_, err = Classify([]string{"Posting Date"})
	assert.ErrorIs(t, err, ErrUnrecognizedOrigin)
}

func TestClassify_Unrecognized(t *testing.T) {
	_, err := Classify([]string{"Posting Date", "Memo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedOrigin)
	assert.Contains(t, err.Error(), "Posting Date")

	_, err = Classify(nil)
	assert.ErrorIs(t, err, ErrUnrecognizedOrigin)
}

func TestOriginString(t *testing.T) {
	assert.Equal(t, "usaa", OriginUSAA.String())
	assert.Equal(t, "capitalone", OriginCapitalOne.String())
	assert.Equal(t, "unknown", OriginUnknown.String())
}

func TestParseRow_USAA(t *testing.T) {
	p := newParser()
	row := []string{"2024-01-05", "AMAZON MKTPLACE", "AMAZON MKTPLACE PMTS", "Shopping", "-42.10", "Posted"}

	txn, ok, err := p.ParseRow(OriginUSAA, row)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "-42.10", txn.Amount.StringFixed(2))
	assert.True(t, txn.Amount.IsNegative())
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.Equal(t, model.CardUSAA, txn.Card)
	assert.Equal(t, "amazon", txn.Description)
}

func TestParseRow_USAAKeepsSign(t *testing.T) {
	p := newParser()
	txn, ok, err := p.ParseRow(OriginUSAA, []string{"2024-01-08", "Acme Payroll", "", "", "2500.00", ""})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2500.00", txn.Amount.StringFixed(2))
	assert.Equal(t, "acme payroll", txn.Description)
}

func TestParseRow_USAASkipsCounterpartPayments(t *testing.T) {
	p := newParser()
	_, ok, err := p.ParseRow(OriginUSAA, []string{"2024-01-06", "Capital One Online Pmt", "", "", "-512.33", ""})
	require.NoError(t, err)
	assert.False(t, ok)

	// The check is case sensitive.
	_, ok, err = p.ParseRow(OriginUSAA, []string{"2024-01-06", "CAPITAL ONE ONLINE PMT", "", "", "-512.33", ""})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseRow_USAASkipBeforeValidation(t *testing.T) {
	p := newParser()
	_, ok, err := p.ParseRow(OriginUSAA, []string{"not-a-date", "Capital One", "", "", "NaN?", ""})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseRow_CapitalOneDebitNegated(t *testing.T) {
	p := newParser()
	row := []string{"2024-01-03", "2024-01-04", "1234", "CHIPOTLE 1234", "Dining", "14.25", ""}

	txn, ok, err := p.ParseRow(OriginCapitalOne, row)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "-14.25", txn.Amount.StringFixed(2))
	assert.Equal(t, model.CardCapitalOne, txn.Card)
	assert.Equal(t, "chipotle", txn.Description)
}

func TestParseRow_CapitalOneCashBack(t *testing.T) {
	p := newParser()
	row := []string{"2024-01-10", "2024-01-11", "1234", "CREDIT-CASH BACK REWARD", "Payment/Credit", "", "25.00"}

	txn, ok, err := p.ParseRow(OriginCapitalOne, row)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "25.00", txn.Amount.StringFixed(2))
	assert.True(t, txn.Amount.IsPositive())
	assert.Equal(t, "credit-cash back reward", txn.Description)
}

func TestParseRow_CapitalOneSkipsPayments(t *testing.T) {
	p := newParser()
	row := []string{"2024-01-07", "2024-01-08", "1234", "CAPITAL ONE MOBILE PYMT", "Payment/Credit", "", "512.33"}

	_, ok, err := p.ParseRow(OriginCapitalOne, row)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseRow_ShortRow(t *testing.T) {
	p := newParser()

	_, _, err := p.ParseRow(OriginUSAA, []string{"2024-01-05", "AMAZON", "x", "y"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "row", perr.Field)
	assert.Contains(t, err.Error(), "expected at least 5 fields, got 4")

	_, _, err = p.ParseRow(OriginCapitalOne, []string{"2024-01-05", "", "", "CHIPOTLE", "", "1.00"})
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "expected at least 7 fields, got 6")
}

func TestParseRow_BadAmount(t *testing.T) {
	p := newParser()

	_, _, err := p.ParseRow(OriginUSAA, []string{"2024-01-05", "AMAZON", "", "", "forty", ""})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "amount", perr.Field)
	assert.Equal(t, "forty", perr.Value)
	assert.Contains(t, err.Error(), `parsing amount "forty"`)

	_, _, err = p.ParseRow(OriginCapitalOne, []string{"2024-01-05", "", "", "CHIPOTLE", "", "", "abc"})
	require.NoError(t, err, "non cash-back credits are skipped before parsing")

	_, _, err = p.ParseRow(OriginCapitalOne, []string{"2024-01-05", "", "", "CREDIT-CASH BACK REWARD", "", "", "abc"})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "credit", perr.Field)

	_, _, err = p.ParseRow(OriginCapitalOne, []string{"2024-01-05", "", "", "CHIPOTLE", "", "", ""})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "debit", perr.Field)
}

func TestParseRow_BadDate(t *testing.T) {
	p := newParser()
	_, _, err := p.ParseRow(OriginUSAA, []string{"01/05/2024", "AMAZON", "", "", "-1.00", ""})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "date", perr.Field)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestParseRow_UnknownOrigin(t *testing.T) {
	p := newParser()
	_, ok, err := p.ParseRow(OriginUnknown, []string{"a", "b", "c", "d", "e", "f", "g"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownOrigin)
}

func TestReadFile_USAA(t *testing.T) {
	res := readTestdata(t, "usaa.csv")
	assert.Equal(t, OriginUSAA, res.Origin)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 4)

	assert.Equal(t, "amazon", res.Records[0].Description)
	assert.Equal(t, "-42.10", res.Records[0].Amount.StringFixed(2))
	assert.Equal(t, "acme payroll", res.Records[1].Description)
	assert.Equal(t, "king soopers", res.Records[2].Description)
	assert.Equal(t, "local bakery", res.Records[3].Description)
	for _, txn := range res.Records {
		assert.Equal(t, model.CardUSAA, txn.Card)
	}
}

func TestReadFile_CapitalOne(t *testing.T) {
	res := readTestdata(t, "capitalone.csv")
	assert.Equal(t, OriginCapitalOne, res.Origin)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 3)

	assert.Equal(t, "-14.25", res.Records[0].Amount.StringFixed(2))
	assert.Equal(t, "25.00", res.Records[1].Amount.StringFixed(2))
	assert.Equal(t, "shell", res.Records[2].Description)
	assert.Equal(t, "-40.00", res.Records[2].Amount.StringFixed(2))
}

func TestReadFile_SingleRowScenario(t *testing.T) {
	data := "Date,Description,Original Description,Category,Amount,Status\n" +
		"2024-01-05,AMAZON MKTPLACE,AMAZON MKTPLACE PMTS,Shopping,-42.10,Posted\n"

	res, err := newParser().ReadFile(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	txn := res.Records[0]
	assert.True(t, txn.Amount.Equal(decimalOf(t, "-42.10")))
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.Equal(t, model.CardUSAA, txn.Card)
	assert.Equal(t, "amazon", txn.Description)
}

func TestReadFile_HeaderOnly(t *testing.T) {
	res, err := newParser().ReadFile(strings.NewReader("Transaction Date,Posted Date,Card No.,Description,Category,Debit,Credit\n"))
	require.NoError(t, err)
	assert.Equal(t, OriginCapitalOne, res.Origin)
	assert.Nil(t, res.Records)
}

func TestReadFile_Empty(t *testing.T) {
	_, err := newParser().ReadFile(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnrecognizedOrigin)
}

func TestReadFile_Unrecognized(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "testdata", "unknown.csv"))
	require.NoError(t, err)
	defer f.Close()

	_, err = newParser().ReadFile(f)
	assert.ErrorIs(t, err, ErrUnrecognizedOrigin)
}

func TestReadFile_ParseErrorAbortsFile(t *testing.T) {
	data := "Date,Description,Original Description,Category,Amount,Status\n" +
		"2024-01-05,AMAZON,,,-1.00,Posted\n" +
		"2024-01-06,AMAZON,,,oops,Posted\n"

	res, err := newParser().ReadFile(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3:")
	assert.Nil(t, res.Records)

	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "new")
	require.NoError(t, os.MkdirAll(filepath.Join(inbox, "nested"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "usaa.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "CAPONE.CSV"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{"usaa.csv", "CAPONE.CSV"}, names)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "new"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "processed"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new", "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "processed", "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_MissingInbox(t *testing.T) {
	_, err := Scan(t.TempDir())
	assert.ErrorIs(t, err, ErrNoInbox)
}

func TestScan_EmptyInbox(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "new"), 0o755))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "new"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new", "usaa.csv"), []byte("data"), 0o644))

	name, err := MarkProcessed(dir, "usaa.csv")
	require.NoError(t, err)
	assert.Equal(t, "usaa.csv", name)

	_, err = os.Stat(filepath.Join(dir, "new", "usaa.csv"))
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(filepath.Join(dir, "processed", "usaa.csv"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestMarkProcessed_Missing(t *testing.T) {
	_, err := MarkProcessed(t.TempDir(), "nope.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moving nope.csv to processed")
}

func TestMarkProcessed_KeepsEarlierArchive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "new"), 0o755))

	for i, body := range []string{"january", "february", "march"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "new", "usaa.csv"), []byte(body), 0o644))
		name, err := MarkProcessed(dir, "usaa.csv")
		require.NoError(t, err)
		assert.Equal(t, []string{"usaa.csv", "usaa-1.csv", "usaa-2.csv"}[i], name)
	}

	for name, want := range map[string]string{"usaa.csv": "january", "usaa-1.csv": "february", "usaa-2.csv": "march"} {
		data, err := os.ReadFile(filepath.Join(dir, "processed", name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data), name)
	}
}

func TestScan_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "new")
	require.NoError(t, os.MkdirAll(inbox, 0o755))

	target := filepath.Join(t.TempDir(), "download.csv")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o644))
	if err := os.Symlink(target, filepath.Join(inbox, "usaa.csv")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.csv"), filepath.Join(inbox, "dangling.csv")))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "somedir"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "somedir"), filepath.Join(inbox, "linkdir.csv")))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "usaa.csv", files[0].Name)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestLayout(t *testing.T) {
	assert.Equal(t, []string{filepath.Join("root", "new"), filepath.Join("root", "processed")}, Layout("root"))
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
