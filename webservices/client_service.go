package webservices

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// ClientService serves the browser page that shows the map and sends clicks to the API
type ClientService struct {
	logger *logpkg.Logger
	chi.Router
}

func NewClientService(logger *logpkg.Logger) *ClientService {
	cs := &ClientService{logger, chi.NewRouter()}

	cs.Get("/", cs.handleGet)

	return cs
}

func (cs *ClientService) handleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := clientTmpl.Execute(w, nil)
	if err != nil {
		errorsx.HTTPError(w, cs.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}
}

var clientTmpl = template.Must(template.New("client/index.html").Parse(clientTemplate))

const clientTemplate = `
<html>
	<head>
		<title>geoquiz</title>
		<style type="text/css">
		body { font-family: sans-serif; margin: 0; }
		#status { padding: 10px; }
		#map { cursor: crosshair; display: block; }
		</style>
	</head>
	<body>
		<div id="status">Loading map data...</div>
		<img id="map" alt="map" />
		<script>
		const statusEl = document.getElementById('status');
		const mapEl = document.getElementById('map');
		let round = null;
		let frame = null;

		function layout() {
			const url = '/api/info?availableWidth=' + window.innerWidth + '&availableHeight=' + (window.innerHeight - 50);
			return fetch(url).then(r => r.json()).then(info => {
				if (!info.mapFrame) {
					setTimeout(layout, 500);
					return;
				}
				frame = info.mapFrame;
				const width = Math.round(frame.width);
				const height = Math.round(frame.height);
				mapEl.width = width;
				mapEl.height = height;
				frame = {width: width, height: height};
				mapEl.src = '/api/map.png?width=' + width + '&height=' + height;
				return newRound();
			});
		}

		function newRound() {
			return fetch('/api/rounds', {method: 'POST'}).then(r => r.json()).then(r => {
				round = r;
				statusEl.innerText = 'Find: ' + round.targetName;
			});
		}

		mapEl.addEventListener('click', e => {
			if (!round || !frame) {
				return;
			}
			const body = JSON.stringify({pixelX: e.offsetX, pixelY: e.offsetY, displayWidth: frame.width, displayHeight: frame.height});
			fetch('/api/rounds/' + round.id + '/guesses', {method: 'POST', body: body})
				.then(r => r.json())
				.then(result => {
					const label = result.click ? result.click.label : 'Too late!';
					statusEl.innerText = label + ' (' + result.outcome + ', score: ' + result.totalScore + ')';
					mapEl.src = '/api/map.png?width=' + frame.width + '&height=' + frame.height + '&highlight=' + encodeURIComponent(result.targetName);
					setTimeout(newRound, 2000);
				});
		});

		let resizeTimer = null;
		window.addEventListener('resize', () => {
			clearTimeout(resizeTimer);
			resizeTimer = setTimeout(layout, 100);
		});

		layout();
		</script>
	</body>
</html>
`
