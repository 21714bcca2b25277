package symbols

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"NiftyScreener/internal/model"
)

// Kind selects how a list file is read.
type Kind string

const (
	// KindIndex is an NSE index constituents CSV ("Symbol", "ISIN Code").
	KindIndex Kind = "index"
	// KindETF is an NSE market-watch ETF export ("SYMBOL").
	KindETF Kind = "etf"
)

// ListSpec names one symbol list file. Sheet and TradesSheet select the
// export tabs of the list; lists naming the same tab share it. Preset picks
// the trade rules, "etf" by default for ETF lists.
type ListSpec struct {
	Name        string `yaml:"name" validate:"required"`
	Path        string `yaml:"path" validate:"required"`
	Kind        Kind   `yaml:"kind" validate:"omitempty,oneof=index etf"`
	Sheet       string `yaml:"sheet"`
	TradesSheet string `yaml:"trades_sheet"`
	Preset      string `yaml:"preset" validate:"omitempty,oneof=equity etf"`
}

// DefaultPreset returns the trade rules preset of the list, or "" to use
// the global one.
func (s ListSpec) DefaultPreset() string {
	if s.Preset == "" && s.Kind == KindETF {
		return "etf"
	}
	return s.Preset
}

// List is a resolved symbol list.
type List struct {
	Name        string
	Kind        Kind
	Sheet       string
	TradesSheet string
	Instruments []model.Instrument
}

// Loader resolves list files against the instrument master.
type Loader struct {
	Master *Master
}

// NewLoader creates a Loader. A nil master is allowed for index lists, which
// carry their own ISINs.
func NewLoader(master *Master) *Loader {
	return &Loader{Master: master}
}

// Load resolves every spec in order. An instrument already present in an
// earlier list is dropped from later ones, so N100 excludes N50 and N200
// excludes both.
func (l *Loader) Load(specs []ListSpec) ([]List, error) {
	seen := map[string]bool{}
	out := make([]List, 0, len(specs))
	for _, spec := range specs {
		f, err := os.Open(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", spec.Name, err)
		}
		list, err := l.Read(spec, f)
		f.Close()
		if err != nil {
			return nil, err
		}

		kept := list.Instruments[:0]
		for _, inst := range list.Instruments {
			if seen[inst.InstrumentKey] {
				continue
			}
			seen[inst.InstrumentKey] = true
			kept = append(kept, inst)
		}
		list.Instruments = kept
		log.Printf("[INFO] symbol list %s: %d instruments", spec.Name, len(kept))
		out = append(out, list)
	}
	return out, nil
}

// Read parses one list file.
func (l *Loader) Read(spec ListSpec, r io.Reader) (List, error) {
	kind := spec.Kind
	if kind == "" {
		kind = KindIndex
	}
	list := List{Name: spec.Name, Kind: kind, Sheet: spec.Sheet, TradesSheet: spec.TradesSheet}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return list, fmt.Errorf("list %s: read header: %w", spec.Name, err)
	}
	records, err := cr.ReadAll()
	if err != nil {
		return list, fmt.Errorf("list %s: %w", spec.Name, err)
	}

	switch kind {
	case KindIndex:
		list.Instruments, err = l.indexInstruments(spec.Name, header, records)
	case KindETF:
		list.Instruments, err = l.etfInstruments(spec.Name, header, records)
	default:
		err = fmt.Errorf("unknown list kind %q", kind)
	}
	if err != nil {
		return list, fmt.Errorf("list %s: %w", spec.Name, err)
	}
	return list, nil
}

func (l *Loader) indexInstruments(name string, header []string, records [][]string) ([]model.Instrument, error) {
	cols, err := columns(header, "ISIN Code")
	if err != nil {
		return nil, err
	}
	symCol, nameCol := optionalColumn(header, "Symbol"), optionalColumn(header, "Company Name")

	var out []model.Instrument
	for _, rec := range records {
		isin := field(rec, cols["ISIN Code"])
		if isin == "" {
			continue
		}
		key := equityExchange + "|" + isin
		inst, ok := model.Instrument{}, false
		if l.Master != nil {
			inst, ok = l.Master.ByKey(key)
		}
		if !ok {
			sym := field(rec, symCol)
			if sym == "" {
				log.Printf("[WARN] list %s: ISIN %s not in instrument master, skipped", name, isin)
				continue
			}
			inst = model.Instrument{Symbol: sym, InstrumentKey: key, ISIN: isin, Name: field(rec, nameCol)}
		}
		inst.List = name
		out = append(out, inst)
	}
	return out, nil
}

func (l *Loader) etfInstruments(name string, header []string, records [][]string) ([]model.Instrument, error) {
	if l.Master == nil {
		return nil, fmt.Errorf("etf list needs the instrument master")
	}
	cols, err := columns(header, "SYMBOL")
	if err != nil {
		return nil, err
	}
	var out []model.Instrument
	for _, rec := range records {
		sym := field(rec, cols["SYMBOL"])
		if sym == "" {
			continue
		}
		inst, ok := l.Master.BySymbol(sym)
		if !ok {
			log.Printf("[WARN] list %s: symbol %s not in instrument master, skipped", name, sym)
			continue
		}
		inst.List = name
		out = append(out, inst)
	}
	return out, nil
}

func optionalColumn(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
			return i
		}
	}
	return -1
}
