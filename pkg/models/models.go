package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status   string    `json:"status" example:"healthy" doc:"Service health status"`
		Version  string    `json:"version" example:"1.0.0" doc:"API version"`
		Database string    `json:"database" example:"postgres" doc:"Database driver in use"`
		Time     time.Time `json:"time" doc:"Current server time"`
	}
}

// ListBandsResponse lists the canonical spectral bands
type ListBandsResponse struct {
	Body struct {
		Bands []SpectralBand `json:"bands" doc:"Spectral bands ordered by lower frequency"`
	}
}

// ListParametersResponse lists the spectrogram parameter sets
type ListParametersResponse struct {
	Body struct {
		Parameters []SpectrogramParameters `json:"parameters" doc:"Parameter sets ordered by index"`
	}
}

// TraceInput is the signal of one electrode
type TraceInput struct {
	Electrode int       `json:"electrode" minimum:"0" doc:"Electrode index"`
	LFP       []float64 `json:"lfp" minItems:"1" doc:"LFP samples"`
}

// CreateLFPRequestBody carries the LFP of a session
type CreateLFPRequestBody struct {
	SamplingRate float64      `json:"sampling_rate" exclusiveMinimum:"0" required:"true" doc:"Sampling rate in Hz"`
	Traces       []TraceInput `json:"traces" minItems:"1" required:"true" doc:"One trace per electrode"`
}

// CreateLFPRequest stores the LFP of a session
type CreateLFPRequest struct {
	SessionID string `path:"session_id" maxLength:"64" doc:"Session identifier"`
	Body      CreateLFPRequestBody
}

// CreateLFPResponseBody summarizes a stored LFP
type CreateLFPResponseBody struct {
	SessionID  string `json:"session_id" doc:"Session identifier"`
	Electrodes int    `json:"electrodes" doc:"Number of traces stored"`
}

// CreateLFPResponse is returned after storing an LFP
type CreateLFPResponse struct {
	Body CreateLFPResponseBody
}

// SessionParamRequest addresses a session and a parameter set
type SessionParamRequest struct {
	SessionID string `path:"session_id" maxLength:"64" doc:"Session identifier"`
	ParamIdx  int    `query:"param_idx" default:"0" minimum:"0" doc:"Spectrogram parameter set"`
}

// PopulateSessionResponseBody reports the outcome per spectrogram key
type PopulateSessionResponseBody struct {
	Computed []SpectrogramKey `json:"computed" doc:"Spectrograms computed by this request"`
	Skipped  []SpectrogramKey `json:"skipped" doc:"Spectrograms that already existed"`
	Failed   []SpectrogramKey `json:"failed" doc:"Spectrograms that could not be computed"`
}

// PopulateSessionResponse is returned after populating a session
type PopulateSessionResponse struct {
	Body PopulateSessionResponseBody
}

// ChannelRequest addresses one electrode spectrogram
type ChannelRequest struct {
	SessionID string `path:"session_id" maxLength:"64" doc:"Session identifier"`
	Electrode int    `path:"electrode" minimum:"0" doc:"Electrode index"`
	ParamIdx  int    `query:"param_idx" default:"0" minimum:"0" doc:"Spectrogram parameter set"`
}

// GetSpectrogramResponse returns one channel spectrogram
type GetSpectrogramResponse struct {
	Body *ChannelSpectrogram
}

// GetPowersResponse returns the band powers of one spectrogram
type GetPowersResponse struct {
	Body struct {
		Powers []ChannelPower `json:"powers" doc:"Band power series ordered by lower frequency"`
	}
}

// PlotResponse returns the metadata of a rendered plot
type PlotResponse struct {
	Body *SpectrogramPlot
}

// IngestProbesResponse reports how many probe configurations were read
type IngestProbesResponse struct {
	Body struct {
		Configs int `json:"configs" doc:"Electrode configurations read from probe.yaml"`
	}
}

// CreateUploadRequest asks for a pre-signed upload into the inbox
type CreateUploadRequest struct {
	Body struct {
		Path        string `json:"path" minLength:"1" maxLength:"255" required:"true" doc:"Path of the file relative to the inbox"`
		ContentType string `json:"content_type" enum:"application/octet-stream,application/x-yaml,application/json,text/csv,text/plain" default:"application/octet-stream" doc:"File content type"`
	}
}

// CreateUploadResponse carries a pre-signed upload URL
type CreateUploadResponse struct {
	Body struct {
		Key       string `json:"key" doc:"Object key the file will be stored under"`
		UploadURL string `json:"upload_url" doc:"Pre-signed S3 URL for file upload"`
		ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}

// CreateParametersRequest adds a spectrogram parameter set
type CreateParametersRequest struct {
	Body struct {
		ParamIdx    int     `json:"param_idx" minimum:"0" doc:"Parameter set identifier"`
		WindowSize  float64 `json:"window_size" exclusiveMinimum:"0" doc:"Segment length in seconds"`
		OverlapSize float64 `json:"overlap_size" minimum:"0" doc:"Segment overlap in seconds"`
		WindowType  string  `json:"window_type,omitempty" enum:"boxcar,hann,hamming,bartlett,blackman" default:"boxcar" doc:"Taper applied to each segment"`
		Description string  `json:"description,omitempty" maxLength:"64" doc:"Free-text description"`
	}
}

// CreateParametersResponse returns the stored parameter set
type CreateParametersResponse struct {
	Body *SpectrogramParameters
}

// TraceRequest addresses the LFP trace of one electrode
type TraceRequest struct {
	SessionID string `path:"session_id" maxLength:"64" doc:"Session identifier"`
	Electrode int    `path:"electrode" minimum:"0" doc:"Electrode index"`
}

// RawFileRequest looks up a registered raw recording
type RawFileRequest struct {
	Path string `query:"path" required:"true" minLength:"1" maxLength:"255" doc:"Object key of the raw file"`
}

// RawFileResponse carries a raw file record and a pre-signed download URL
type RawFileResponse struct {
	Body struct {
		File        *EphysRawFile `json:"file" doc:"Registered raw file"`
		DownloadURL string        `json:"download_url" doc:"Pre-signed S3 URL for file download"`
		ExpiresIn   int           `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}
