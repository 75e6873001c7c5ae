package models

import "time"

// ProbeType is a probe model with a fixed electrode layout
type ProbeType struct {
	ProbeType  string           `json:"probe_type"`
	Electrodes []ProbeElectrode `json:"electrodes,omitempty"`
}

// ProbeElectrode is the position of one electrode site on a probe type
type ProbeElectrode struct {
	ProbeType string  `json:"probe_type"`
	Electrode int     `json:"electrode"`
	Shank     int     `json:"shank"`
	ShankCol  int     `json:"shank_col"`
	ShankRow  int     `json:"shank_row"`
	XCoord    float64 `json:"x_coord"`
	YCoord    float64 `json:"y_coord"`
}

// Probe is a physical probe identified by its serial number
type Probe struct {
	Probe        string `json:"probe"`
	ProbeType    string `json:"probe_type"`
	ProbeComment string `json:"probe_comment"`
}

// ElectrodeConfig maps recording channels to probe electrodes
type ElectrodeConfig struct {
	Name      string      `json:"electrode_config_name"`
	ProbeType string      `json:"probe_type"`
	Channels  map[int]int `json:"channel_to_electrode"`
}

// EphysRawFile is a raw acquisition file registered from the inbox
type EphysRawFile struct {
	FilePath       string    `json:"file_path"`
	FileTime       time.Time `json:"file_time"`
	ParentFolder   string    `json:"parent_folder"`
	FilenamePrefix string    `json:"filename_prefix"`
	CreatedAt      time.Time `json:"created_at"`
}

// FileProcessing records one pass over an inbox file
type FileProcessing struct {
	ID            string    `json:"id"`
	RemotePath    string    `json:"remote_path"`
	ExecutionTime time.Time `json:"execution_time"`
	LogMessage    string    `json:"log_message"`
}
