package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NiftyScreener/internal/config"
	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/recorder"
	"NiftyScreener/internal/symbols"
)

const nifty50CSV = `Company Name,Industry,Symbol,Series,ISIN Code
Infosys Ltd.,Information Technology,INFY,EQ,INE009A01021
Tata Consultancy Services Ltd.,Information Technology,TCS,EQ,INE467B01029
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	listPath := filepath.Join(dir, "n50.csv")
	require.NoError(t, os.WriteFile(listPath, []byte(nifty50CSV), 0o644))

	cfg := config.Default()
	cfg.DataSource.Provider = "mock"
	cfg.Symbols.Lists = []symbols.ListSpec{{Name: "N50", Path: listPath}}
	cfg.Export.Dir = filepath.Join(dir, "export")
	cfg.Database.SQLitePath = filepath.Join(dir, "db", "screener.db")
	cfg.Telegram.BotToken = ""
	cfg.Cache.RedisAddr = ""
	cfg.Database.PostgresDSN = ""
	require.NoError(t, cfg.Validate())
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestAppRunsBothJobs(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()
	a.now = func() time.Time { return time.Date(2025, 6, 30, 17, 0, 0, 0, markethours.IST) }

	require.NoError(t, a.runTrades(ctx))
	trades := readCSV(t, filepath.Join(cfg.Export.Dir, "Trades.csv"))
	assert.Equal(t, []string{"Stock", "Date", "Action", "Price", "RSI", "Ratio"}, trades[0])

	require.NoError(t, a.runBreakout(ctx))
	breakout := readCSV(t, filepath.Join(cfg.Export.Dir, "Breakout.csv"))
	require.Len(t, breakout, 3)
	assert.Equal(t, "INFY", breakout[1][0])
	assert.Equal(t, "TCS", breakout[2][0])

	run, err := a.recorder.LastRun(recorder.JobBreakout)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 2, run.Succeeded)
	assert.Equal(t, "mock", run.Source)
}

func TestAppExportsOneTabPerList(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.Symbols.Lists[0].Path)
	next50 := filepath.Join(dir, "n100.csv")
	require.NoError(t, os.WriteFile(next50, []byte(`Company Name,Industry,Symbol,Series,ISIN Code
Tata Consultancy Services Ltd.,Information Technology,TCS,EQ,INE467B01029
Wipro Ltd.,Information Technology,WIPRO,EQ,INE075A01022
`), 0o644))
	n200 := filepath.Join(dir, "n200.csv")
	require.NoError(t, os.WriteFile(n200, []byte(`Company Name,Industry,Symbol,Series,ISIN Code
Infosys Ltd.,Information Technology,INFY,EQ,INE009A01021
HCL Technologies Ltd.,Information Technology,HCLTECH,EQ,INE860A01027
`), 0o644))
	cfg.Symbols.Lists = []symbols.ListSpec{
		{Name: "N50", Path: cfg.Symbols.Lists[0].Path, Sheet: "SST-N50"},
		{Name: "N100", Path: next50, Sheet: "SST-N100"},
		{Name: "N200", Path: n200, Sheet: "SST-N200"},
	}
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()
	a.now = func() time.Time { return time.Date(2025, 6, 30, 17, 0, 0, 0, markethours.IST) }

	require.NoError(t, a.runBreakout(ctx))
	symbolsIn := func(tab string) []string {
		var out []string
		for _, row := range readCSV(t, filepath.Join(cfg.Export.Dir, tab+".csv"))[1:] {
			out = append(out, row[0])
		}
		return out
	}
	assert.Equal(t, []string{"INFY", "TCS"}, symbolsIn("SST-N50"))
	assert.Equal(t, []string{"WIPRO"}, symbolsIn("SST-N100"))
	assert.Equal(t, []string{"HCLTECH"}, symbolsIn("SST-N200"))
	assert.NoFileExists(t, filepath.Join(cfg.Export.Dir, "Breakout.csv"))

	run, err := a.recorder.LastRun(recorder.JobBreakout)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 5, run.Instruments)

	require.NoError(t, a.runTrades(ctx))
	assert.FileExists(t, filepath.Join(cfg.Export.Dir, "Trades.csv"))
}

func TestAppRejectsEmptyLists(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Symbols.Lists[0].Path, []byte("Company Name,Symbol,ISIN Code\n"), 0o644))

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.ErrorContains(t, a.runTrades(context.Background()), "no instruments")
}
