package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/RMahshie/ephyspipe/internal/api/handlers"
	"github.com/RMahshie/ephyspipe/internal/ingestion"
	"github.com/RMahshie/ephyspipe/internal/processing"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/internal/storage"
)

// maxLFPBodyBytes bounds the JSON body of a whole-session LFP upload
const maxLFPBodyBytes = 512 << 20

// Services bundles what the routes are served from. S3 and Ingest may be nil
// when no object store is configured.
type Services struct {
	Repo         repository.SpectrogramRepository
	RawFiles     repository.IngestionRepository
	Spectrograms processing.SpectrogramService
	Ingest       ingestion.IngestionService
	S3           storage.S3Service
	InboxPrefix  string
	RootDataDir  string
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(router chi.Router, api huma.API, svc Services) {
	spectrogramHandler := handlers.NewSpectrogramHandler(svc.Repo, svc.Spectrograms)
	plotHandler := handlers.NewPlotHandler(svc.Repo, svc.Spectrograms)

	huma.Register(api, huma.Operation{
		OperationID: "listBands",
		Method:      http.MethodGet,
		Path:        "/api/bands",
		Summary:     "List spectral bands",
		Description: "Returns the canonical frequency bands band powers are computed for",
		Tags:        []string{"Lookup"},
	}, spectrogramHandler.ListBands)

	huma.Register(api, huma.Operation{
		OperationID: "listSpectrogramParameters",
		Method:      http.MethodGet,
		Path:        "/api/spectrogram-params",
		Summary:     "List spectrogram parameters",
		Description: "Returns the windowing configurations spectrograms can be computed with",
		Tags:        []string{"Lookup"},
	}, spectrogramHandler.ListParameters)

	huma.Register(api, huma.Operation{
		OperationID:   "createSpectrogramParameters",
		Method:        http.MethodPost,
		Path:          "/api/spectrogram-params",
		Summary:       "Create spectrogram parameters",
		Description:   "Adds a windowing configuration; existing parameter sets cannot be changed",
		Tags:          []string{"Lookup"},
		DefaultStatus: http.StatusCreated,
	}, spectrogramHandler.CreateParameters)

	huma.Register(api, huma.Operation{
		OperationID:   "createLFP",
		Method:        http.MethodPost,
		Path:          "/api/sessions/{session_id}/lfp",
		Summary:       "Store session LFP",
		Description:   "Stores the sampling rate and per-electrode traces of a session",
		Tags:          []string{"LFP"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxLFPBodyBytes,
	}, spectrogramHandler.CreateLFP)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteTrace",
		Method:        http.MethodDelete,
		Path:          "/api/sessions/{session_id}/electrodes/{electrode}",
		Summary:       "Delete electrode trace",
		Description:   "Removes the LFP trace of an electrode and its spectrograms; session plots containing it become stale",
		Tags:          []string{"LFP"},
		DefaultStatus: http.StatusNoContent,
	}, spectrogramHandler.DeleteTrace)

	huma.Register(api, huma.Operation{
		OperationID: "populateSession",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{session_id}/spectrograms",
		Summary:     "Compute session spectrograms",
		Description: "Computes the spectrogram and band powers of every electrode that lacks one",
		Tags:        []string{"Spectrogram"},
	}, spectrogramHandler.PopulateSession)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrogram",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/electrodes/{electrode}/spectrogram",
		Summary:     "Get electrode spectrogram",
		Description: "Returns the power matrix with its time and frequency axes",
		Tags:        []string{"Spectrogram"},
	}, spectrogramHandler.GetSpectrogram)

	huma.Register(api, huma.Operation{
		OperationID: "getBandPowers",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/electrodes/{electrode}/powers",
		Summary:     "Get electrode band powers",
		Description: "Returns the mean power of each spectral band over time",
		Tags:        []string{"Spectrogram"},
	}, spectrogramHandler.GetPowers)

	huma.Register(api, huma.Operation{
		OperationID:   "renderPlot",
		Method:        http.MethodPost,
		Path:          "/api/sessions/{session_id}/plots",
		Summary:       "Render session plot",
		Description:   "Renders the spectrograms of a session into one figure with a toggle per electrode",
		Tags:          []string{"Plot"},
		DefaultStatus: http.StatusCreated,
	}, plotHandler.RenderPlot)

	huma.Register(api, huma.Operation{
		OperationID: "getPlot",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/plots",
		Summary:     "Get session plot",
		Description: "Returns a rendered plot and its figure",
		Tags:        []string{"Plot"},
	}, plotHandler.GetPlot)

	router.Get("/api/sessions/{session_id}/electrodes/{electrode}/powers.png", spectrogramHandler.PowersPNG)
	router.Get("/api/sessions/{session_id}/plots.html", plotHandler.PlotHTML)

	if svc.Ingest != nil {
		probeHandler := handlers.NewProbeHandler(svc.Ingest, svc.RootDataDir)
		huma.Register(api, huma.Operation{
			OperationID: "ingestProbes",
			Method:      http.MethodPost,
			Path:        "/api/probes/ingest",
			Summary:     "Ingest probes",
			Description: "Registers the probes described by probe.yaml in the root data directory",
			Tags:        []string{"Ingestion"},
		}, probeHandler.IngestProbes)
	}

	if svc.S3 != nil {
		uploadHandler := handlers.NewUploadHandler(svc.S3, svc.InboxPrefix)
		huma.Register(api, huma.Operation{
			OperationID: "createUpload",
			Method:      http.MethodPost,
			Path:        "/api/uploads",
			Summary:     "Create inbox upload",
			Description: "Returns a pre-signed URL for uploading a session file into the inbox",
			Tags:        []string{"Ingestion"},
		}, uploadHandler.CreateUpload)

		if svc.RawFiles != nil {
			rawFileHandler := handlers.NewRawFileHandler(svc.RawFiles, svc.S3)
			huma.Register(api, huma.Operation{
				OperationID: "getRawFile",
				Method:      http.MethodGet,
				Path:        "/api/raw-files",
				Summary:     "Get raw file",
				Description: "Returns a registered raw recording with a pre-signed download URL",
				Tags:        []string{"Ingestion"},
			}, rawFileHandler.GetRawFile)
		}
	}
}
