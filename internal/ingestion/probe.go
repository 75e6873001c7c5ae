package ingestion

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/RMahshie/ephyspipe/pkg/models"
)

// ProbeLayout describes the electrode geometry of a probe type. Zero
// spacings count as 1.
type ProbeLayout struct {
	ProbeType         string  `yaml:"probe_type"`
	SiteCountPerShank int     `yaml:"site_count_per_shank"`
	ColSpacing        float64 `yaml:"col_spacing"`
	RowSpacing        float64 `yaml:"row_spacing"`
	WhiteSpacing      float64 `yaml:"white_spacing"`
	ColCountPerShank  int     `yaml:"col_count_per_shank"`
	ShankCount        int     `yaml:"shank_count"`
	ShankSpacing      float64 `yaml:"shank_spacing"`
	YOrigin           string  `yaml:"y_origin"`
}

// ProbeEntry is one electrode configuration in probe.yaml
type ProbeEntry struct {
	Name               string      `yaml:"-"`
	SerialNumber       string      `yaml:"serial_number"`
	Comment            string      `yaml:"comment"`
	Config             ProbeLayout `yaml:"config"`
	ChannelToElectrode map[int]int `yaml:"channel_to_electrode_map"`
}

// LoadProbeFile reads probe.yaml. Entries are returned sorted by name.
func LoadProbeFile(path string) ([]ProbeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read probe file: %w", err)
	}

	var raw map[string]ProbeEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	entries := make([]ProbeEntry, 0, len(raw))
	for name, entry := range raw {
		entry.Name = name
		if entry.SerialNumber == "" {
			return nil, fmt.Errorf("probe config %s: serial_number is required", name)
		}
		if entry.Config.ProbeType == "" {
			return nil, fmt.Errorf("probe config %s: config.probe_type is required", name)
		}
		if entry.Config.SiteCountPerShank <= 0 {
			return nil, fmt.Errorf("probe config %s: site_count_per_shank must be positive", name)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// BuildElectrodeLayouts lays out the electrode sites of every shank.
// Electrodes are numbered shank by shank, row-major within a shank.
func BuildElectrodeLayouts(l ProbeLayout) ([]models.ProbeElectrode, error) {
	cols := l.ColCountPerShank
	if cols <= 0 {
		cols = 1
	}
	shanks := l.ShankCount
	if shanks <= 0 {
		shanks = 1
	}
	if l.SiteCountPerShank%cols != 0 {
		return nil, fmt.Errorf("%d sites do not fill %d columns", l.SiteCountPerShank, cols)
	}

	ySign := 1.0
	switch l.YOrigin {
	case "", "bottom":
	case "top":
		ySign = -1
	default:
		return nil, fmt.Errorf("y_origin must be top or bottom, got %q", l.YOrigin)
	}

	colSpacing, rowSpacing, shankSpacing := orOne(l.ColSpacing), orOne(l.RowSpacing), orOne(l.ShankSpacing)

	electrodes := make([]models.ProbeElectrode, 0, shanks*l.SiteCountPerShank)
	for shank := 0; shank < shanks; shank++ {
		for site := 0; site < l.SiteCountPerShank; site++ {
			row, col := site/cols, site%cols
			x := float64(col) * colSpacing
			if l.WhiteSpacing != 0 && site%4 < 2 {
				x += l.WhiteSpacing
			}
			electrodes = append(electrodes, models.ProbeElectrode{
				ProbeType: l.ProbeType,
				Electrode: shank*l.SiteCountPerShank + site,
				Shank:     shank,
				ShankCol:  col,
				ShankRow:  row,
				XCoord:    x + float64(shank)*shankSpacing,
				YCoord:    ySign * float64(row) * rowSpacing,
			})
		}
	}
	return electrodes, nil
}
