package symbols

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NiftyScreener/internal/model"
)

const masterCSV = `instrument_key,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,option_type,exchange
NSE_EQ|INE002A01018,2885,RELIANCE,RELIANCE INDUSTRIES LTD,0,,,0.05,1,EQUITY,,NSE_EQ
NSE_EQ|INE467B01029,11536,TCS,TATA CONSULTANCY SERV LT,0,,,0.05,1,EQUITY,,NSE_EQ
NSE_EQ|INE009A01021,1594,INFY,INFOSYS LIMITED,0,,,0.05,1,EQUITY,,NSE_EQ
NSE_EQ|INF204KB17I5,10576,NIFTYBEES-EQ,NIFTY 50,0,,,0.01,1,EQUITY,,NSE_EQ
BSE_EQ|INE002A01018,500325,RELIANCE,RELIANCE INDUSTRIES LTD,0,,,0.05,1,EQUITY,,BSE_EQ
`

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseMaster(t *testing.T) {
	m, err := ParseMaster(strings.NewReader(masterCSV))
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len(), "BSE row dropped")

	inst, ok := m.ByKey("NSE_EQ|INE002A01018")
	require.True(t, ok)
	assert.Equal(t, "RELIANCE", inst.Symbol)
	assert.Equal(t, "INE002A01018", inst.ISIN)
	assert.Equal(t, "RELIANCE INDUSTRIES LTD", inst.Name)

	etf, ok := m.BySymbol("niftybees")
	require.True(t, ok, "-EQ suffix stripped")
	assert.Equal(t, "NIFTY 50", etf.Name)
}

func TestParseMaster_MissingColumn(t *testing.T) {
	_, err := ParseMaster(strings.NewReader("instrument_key,name\nNSE_EQ|X,Y\n"))
	assert.ErrorIs(t, err, model.ErrMissingField)
}

func TestLoadMaster_GzipFileAndURL(t *testing.T) {
	gz := gzipped(t, masterCSV)
	p := filepath.Join(t.TempDir(), "complete.csv.gz")
	require.NoError(t, os.WriteFile(p, gz, 0o644))

	m, err := LoadMaster(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write(gz)
	}))
	defer srv.Close()

	m, err = LoadMaster(context.Background(), srv.URL+"/complete.csv.gz", srv.Client())
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	_, err = LoadMaster(context.Background(), srv.URL+"/missing", srv.Client())
	assert.ErrorIs(t, err, model.ErrUpstreamFetch)
}

func TestLoadMaster_PlainFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "complete.csv", masterCSV)
	m, err := LoadMaster(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())
}

func TestLoader_DedupesAcrossLists(t *testing.T) {
	dir := t.TempDir()
	n50 := writeFile(t, dir, "ind_nifty50list.csv",
		"Company Name,Industry,Symbol,Series,ISIN Code\n"+
			"Reliance Industries Ltd.,Oil Gas,RELIANCE,EQ,INE002A01018\n"+
			"Tata Consultancy Services Ltd.,IT,TCS,EQ,INE467B01029\n")
	n100 := writeFile(t, dir, "ind_niftynext50list.csv",
		"Company Name,Industry,Symbol,Series,ISIN Code\n"+
			"Tata Consultancy Services Ltd.,IT,TCS,EQ,INE467B01029\n"+
			"Infosys Ltd.,IT,INFY,EQ, INE009A01021 \n")
	n200 := writeFile(t, dir, "ind_nifty200list.csv",
		"Company Name,Industry,Symbol,Series,ISIN Code\n"+
			"Reliance Industries Ltd.,Oil Gas,RELIANCE,EQ,INE002A01018\n"+
			"Infosys Ltd.,IT,INFY,EQ,INE009A01021\n"+
			"New Listing Ltd.,Misc,NEWCO,EQ,INE999Z01010\n")

	m, err := ParseMaster(strings.NewReader(masterCSV))
	require.NoError(t, err)
	lists, err := NewLoader(m).Load([]ListSpec{
		{Name: "N50", Path: n50, Sheet: "SST-N50"},
		{Name: "N100", Path: n100, Sheet: "SST-N100"},
		{Name: "N200", Path: n200, Kind: KindIndex, Sheet: "SST-N200", TradesSheet: "Trades-N200"},
	})
	require.NoError(t, err)
	require.Len(t, lists, 3)

	symbolsOf := func(l List) []string {
		var out []string
		for _, inst := range l.Instruments {
			out = append(out, inst.Symbol)
		}
		return out
	}
	assert.Equal(t, []string{"RELIANCE", "TCS"}, symbolsOf(lists[0]))
	assert.Equal(t, []string{"INFY"}, symbolsOf(lists[1]))
	assert.Equal(t, []string{"NEWCO"}, symbolsOf(lists[2]), "unknown ISIN falls back to the CSV row")

	assert.Equal(t, "N100", lists[1].Instruments[0].List)
	assert.Equal(t, "SST-N100", lists[1].Sheet)
	assert.Equal(t, "SST-N200", lists[2].Sheet)
	assert.Equal(t, "Trades-N200", lists[2].TradesSheet)
	assert.Empty(t, lists[0].TradesSheet)
	assert.Equal(t, "NSE_EQ|INE999Z01010", lists[2].Instruments[0].InstrumentKey)
	assert.Equal(t, "New Listing Ltd.", lists[2].Instruments[0].Name)
}

func TestLoader_ETFList(t *testing.T) {
	m, err := ParseMaster(strings.NewReader(masterCSV))
	require.NoError(t, err)

	csv := "SYMBOL \n" + "NIFTYBEES\n" + "GOLDBEES\n"
	list, err := NewLoader(m).Read(ListSpec{Name: "ETF", Kind: KindETF}, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, list.Instruments, 1)
	assert.Equal(t, "NIFTYBEES", list.Instruments[0].Symbol)
	assert.Equal(t, "NIFTY 50", list.Instruments[0].Name)
	assert.Equal(t, "ETF", list.Instruments[0].List)

	_, err = NewLoader(nil).Read(ListSpec{Name: "ETF", Kind: KindETF}, strings.NewReader(csv))
	assert.Error(t, err)
}

func TestListSpec_DefaultPreset(t *testing.T) {
	assert.Equal(t, "", ListSpec{Name: "N50"}.DefaultPreset())
	assert.Equal(t, "etf", ListSpec{Name: "ETF", Kind: KindETF}.DefaultPreset())
	assert.Equal(t, "equity", ListSpec{Name: "ETF", Kind: KindETF, Preset: "equity"}.DefaultPreset())
	assert.Equal(t, "etf", ListSpec{Name: "N50", Preset: "etf"}.DefaultPreset())
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(nil)
	_, err := l.Read(ListSpec{Name: "N50"}, strings.NewReader("Symbol,Series\nRELIANCE,EQ\n"))
	assert.ErrorIs(t, err, model.ErrMissingField)

	_, err = l.Load([]ListSpec{{Name: "N50", Path: filepath.Join(t.TempDir(), "nope.csv")}})
	assert.Error(t, err)
}
