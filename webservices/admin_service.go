package webservices

import (
	"context"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/datasources"
	"github.com/jamesrr39/geoquiz-app/quiz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
)

type AdminService struct {
	logger            *logpkg.Logger
	fs                gofs.Fs
	pathsConfig       *geoquizdal.PathsConfig
	session           *quiz.Session
	loader            *geoquizdal.FeatureLoader
	importQueue       *geoquizdal.ImportQueue
	routerURLBasePath string
	chi.Router
}

func NewAdminService(
	logger *logpkg.Logger,
	fs gofs.Fs,
	pathsConfig *geoquizdal.PathsConfig,
	session *quiz.Session,
	loader *geoquizdal.FeatureLoader,
	routerURLBasePath string,
) *AdminService {
	as := &AdminService{
		logger:            logger,
		fs:                fs,
		pathsConfig:       pathsConfig,
		session:           session,
		loader:            loader,
		routerURLBasePath: routerURLBasePath,
		Router:            chi.NewRouter(),
	}

	as.importQueue = geoquizdal.NewImportQueue(logger, fs, pathsConfig.TempDir, as.importDataset)

	as.Router.Get("/", as.handleGet)
	as.Router.Post("/reload", as.handlePostReload)
	as.Router.Get("/imports", as.handleGetImports)
	as.Router.Post("/datasetFile", as.handlePostDatasetFile)

	return as
}

// handlePostReload retries loading any resource that failed to load
func (as *AdminService) handlePostReload(w http.ResponseWriter, r *http.Request) {
	as.session.Preload()

	w.WriteHeader(http.StatusAccepted)
}

func (as *AdminService) handleGetImports(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, as.importQueue.GetItems())
}

// handlePostDatasetFile takes an uploaded GeoJSON or OSM XML file and queues it for import into a Parquet file in the data dir
func (as *AdminService) handlePostDatasetFile(w http.ResponseWriter, r *http.Request) {
	multipartFile, formData, err := r.FormFile("datasetFile")
	if err != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}
	defer multipartFile.Close()

	fileName := filepath.Base(formData.Filename)

	sourceConnURL, err := geoquizdal.ParseDatasetConnString(fileName)
	if err != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	switch sourceConnURL.Type {
	case geoquizdal.DatasetTypeGeoJSON, geoquizdal.DatasetTypeOSMXML:
	default:
		// shapefiles come with sidecar files, so can't be uploaded as one file
		errorsx.HTTPError(w, as.logger, errorsx.Errorf("unsupported upload type %q", sourceConnURL.Type), http.StatusBadRequest)
		return
	}

	destConnURL := geoquizdal.DatasetConnectionURL{
		Type:           geoquizdal.DatasetTypeParquet,
		ConnectionPath: filepath.Join(as.pathsConfig.DataDir, strings.TrimSuffix(fileName, filepath.Ext(fileName))+".parquet"),
	}

	err = as.importQueue.AddItemToQueue(multipartFile, fileName, destConnURL)
	if err != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (as *AdminService) importDataset(ctx context.Context, sourceConnURL, destConnURL geoquizdal.DatasetConnectionURL) (int, errorsx.Error) {
	finalStorage, err := datasources.NewFinalStorage(as.fs, destConnURL)
	if err != nil {
		return 0, err
	}

	return geoquizdal.Import(ctx, as.logger, as.loader, sourceConnURL, finalStorage)
}

func (as *AdminService) handleGet(w http.ResponseWriter, r *http.Request) {
	type dataType struct {
		RouterURLBasePath string
		Status            geoquizdal.DatasetStatus
		Imports           []geoquizdal.ImportQueueItem
		DataDir           string
	}

	data := dataType{
		RouterURLBasePath: as.routerURLBasePath,
		Status:            as.session.Status(),
		Imports:           as.importQueue.GetItems(),
		DataDir:           as.pathsConfig.DataDir,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := adminTmpl.Execute(w, data)
	if err != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}
}

var adminTmpl *template.Template

func init() {
	var err error
	adminTmpl, err = template.New("admin/index.html").Parse(adminTemplate)
	if err != nil {
		panic(err)
	}
}

const adminTemplate = `
<html>
	<head>
		<title>admin</title>
		<style type="text/css">
		div {
			margin: 10px;
			border: 1px solid grey;
			padding: 10px;
		}
		</style>
		<script>
		function reload() {
			fetch('/{{.RouterURLBasePath}}/reload', {method: 'POST'})
				.then(() => alert('reload started. Refresh page for updates.'))
				.catch(e => alert('failed to start reload: ' + e));
		}

		function submitDatasetFile(formEl) {
			const formData = new FormData(formEl);

			fetch('/{{.RouterURLBasePath}}/datasetFile', {method: 'POST', body: formData})
				.then(() => alert('successfully uploaded dataset file. It is being imported.'))
				.catch(e => {
					console.error(e);
					alert('failed to upload dataset file: ' + e);
				});
		}
		</script>
	</head>
	<body>
		<h1>Admin</h1>
		<div>
			<h2>Dataset</h2>
			<sub>Refresh page for updates</sub>
			<p>Countries: {{.Status.Features.Status}} ({{.Status.FeatureCount}} loaded, {{.Status.Features.Attempts}} attempts)</p>
			{{if .Status.Features.LastError}}<p>Last error: {{.Status.Features.LastError}}</p>{{end}}
			<p>Base map: {{.Status.Raster.Status}} ({{.Status.Raster.Attempts}} attempts)</p>
			{{if .Status.Raster.LastError}}<p>Last error: {{.Status.Raster.LastError}}</p>{{end}}
			<button onclick="reload()">Retry failed loads</button>
		</div>

		<div>
			<h2>Imports</h2>
			{{range .Imports}}
				<h3>{{.SourceFilePath}}</h3>
				<p>Destination: {{.DestConnURL}}</p>
				<p>Status: {{.Status}}</p>
				<p>Features: {{.FeatureCount}}</p>
				{{if .LastError}}<p>Error: {{.LastError}}</p>{{end}}
			{{end}}
		</div>

		<div>
			<h2>Import a dataset</h2>
			<p>Upload a GeoJSON or OpenStreetMap XML file of country boundaries. It is imported into a Parquet file in <pre>{{.DataDir}}</pre></p>
			<form action="javascript:;" method="POST" enctype="multipart/form-data" onsubmit="submitDatasetFile(this)">
				<label>
					Dataset file (.geojson, .json or .osm)
					<input type="file" name="datasetFile" />
				</label>
				<input type="submit" value="Go!" />
			</form>
		</div>
	</body>
</html>
`
