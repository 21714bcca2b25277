package symbols

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"NiftyScreener/internal/model"
)

// DefaultMasterURL is the Upstox NSE instrument master.
const DefaultMasterURL = "https://assets.upstox.com/market-quote/instruments/exchange/complete.csv.gz"

const equityExchange = "NSE_EQ"

// Master indexes the NSE cash-segment rows of the Upstox instrument master.
type Master struct {
	byKey    map[string]model.Instrument
	bySymbol map[string]model.Instrument
}

// ByKey looks up an instrument by its Upstox key, e.g. "NSE_EQ|INE002A01018".
func (m *Master) ByKey(key string) (model.Instrument, bool) {
	inst, ok := m.byKey[key]
	return inst, ok
}

// BySymbol looks up an instrument by trading symbol.
func (m *Master) BySymbol(symbol string) (model.Instrument, bool) {
	inst, ok := m.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return inst, ok
}

// Len returns the number of equity instruments.
func (m *Master) Len() int { return len(m.byKey) }

// LoadMaster reads the instrument master from a local path or an http(s)
// URL. Gzip content is detected from the stream, not the file name.
func LoadMaster(ctx context.Context, src string, client *http.Client) (*Master, error) {
	var rc io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: download instrument master: %w", model.ErrUpstreamFetch, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: download instrument master: status %d", model.ErrUpstreamFetch, resp.StatusCode)
		}
		rc = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open instrument master: %w", err)
		}
		rc = f
	}
	defer rc.Close()

	r, err := maybeGunzip(rc)
	if err != nil {
		return nil, fmt.Errorf("instrument master %s: %w", src, err)
	}
	return ParseMaster(r)
}

func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		return gzip.NewReader(br)
	}
	return br, nil
}

// ParseMaster reads instrument master CSV. Only NSE_EQ rows are kept and a
// trailing "-EQ" is stripped from trading symbols.
func ParseMaster(r io.Reader) (*Master, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read instrument master header: %w", err)
	}
	cols, err := columns(header, "instrument_key", "tradingsymbol", "name", "exchange")
	if err != nil {
		return nil, fmt.Errorf("instrument master: %w", err)
	}

	m := &Master{byKey: map[string]model.Instrument{}, bySymbol: map[string]model.Instrument{}}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read instrument master: %w", err)
		}
		if field(rec, cols["exchange"]) != equityExchange {
			continue
		}
		key := field(rec, cols["instrument_key"])
		inst := model.Instrument{
			Symbol:        strings.TrimSuffix(field(rec, cols["tradingsymbol"]), "-EQ"),
			InstrumentKey: key,
			ISIN:          strings.TrimPrefix(key, equityExchange+"|"),
			Name:          field(rec, cols["name"]),
		}
		m.byKey[key] = inst
		m.bySymbol[strings.ToUpper(inst.Symbol)] = inst
	}
	return m, nil
}

// columns maps each required name to its index in header. Header names are
// compared after trimming spaces.
func columns(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	out := make(map[string]int, len(required))
	for _, name := range required {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("column %q: %w", name, model.ErrMissingField)
		}
		out[name] = i
	}
	return out, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
