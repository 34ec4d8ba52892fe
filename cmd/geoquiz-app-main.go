package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/jamesrr39/geoquiz-app/fonts"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/datasources"
	"github.com/jamesrr39/geoquiz-app/locator"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/geoquiz-app/overlay"
	"github.com/jamesrr39/geoquiz-app/quiz"
	"github.com/jamesrr39/geoquiz-app/quizrenderer"
	"github.com/jamesrr39/geoquiz-app/styling"
	"github.com/jamesrr39/geoquiz-app/webservices"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/open"
	"github.com/jamesrr39/goutil/userextra"
	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	MAX_SERVER_RUNNING_ATTEMPTS = 50
	DEFAULT_PORT                = 9000
	DEFAULT_BASE_DIR            = "~/.local/share/github.com/jamesrr39/geoquiz/"

	resultCacheCapacity = 10000
	resultCacheTTL      = time.Hour
	redisKeyPrefix      = "geoquiz:lookup:"
)

var logger *logpkg.Logger

func main() {
	// settings can also come from a .env file in the working directory
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("couldn't load .env file: %q\n", err)
	}

	if len(os.Args) == 1 {
		logger = logpkg.NewLogger(os.Stderr, logpkg.LogLevelInfo)
		// start in desktop "double-click" visual mode
		err := setupDesktopMode()
		if err != nil {
			log.Fatalf("failed to start server: %q\n%s\n", err.Error(), err.Stack())
		}
		return
	}

	verbose := kingpin.Flag("v", "verbose logging").Envar("GEOQUIZ_VERBOSE").Bool()
	kingpin.CommandLine.PreAction(func(ctx *kingpin.ParseContext) error {
		logLevel := logpkg.LogLevelInfo
		if *verbose {
			logLevel = logpkg.LogLevelDebug
		}
		logger = logpkg.NewLogger(os.Stderr, logLevel)
		return nil
	})

	setupServe()
	setupLocate()
	setupImport()

	kingpin.Parse()
}

// appConfig is what is needed to load the dataset and answer clicks
type appConfig struct {
	BaseDir           string
	DatasetConnString string
	RasterPath        string
	LocatorKind       string
	ContainmentRule   string
	SimplifyThreshold int
	SimplifyTolerance float64
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
}

func defaultAppConfig() *appConfig {
	loaderOptions := geoquizdal.DefaultLoaderOptions()
	return &appConfig{
		BaseDir:           DEFAULT_BASE_DIR,
		LocatorKind:       string(quiz.LocatorKindLinear),
		ContainmentRule:   locator.ExteriorRingOnly.String(),
		SimplifyThreshold: loaderOptions.SimplifyVertexThreshold,
		SimplifyTolerance: loaderOptions.SimplifyTolerance,
	}
}

type flagRegisterer interface {
	Flag(name, help string) *kingpin.FlagClause
}

func registerAppConfigFlags(cmd flagRegisterer, config *appConfig) {
	cmd.Flag("base-dir", "directory for data, temporary and trace files").Default(config.BaseDir).Envar("GEOQUIZ_BASE_DIR").StringVar(&config.BaseDir)
	cmd.Flag("dataset", datasetHelp).Envar("GEOQUIZ_DATASET").StringVar(&config.DatasetConnString)
	cmd.Flag("raster", "base map raster image. Defaults to the Natural Earth raster in the data dir").Envar("GEOQUIZ_RASTER").StringVar(&config.RasterPath)
	cmd.Flag("locator", "point location engine (linear or rtree)").Default(config.LocatorKind).Envar("GEOQUIZ_LOCATOR").EnumVar(&config.LocatorKind, string(quiz.LocatorKindLinear), string(quiz.LocatorKindRTree))
	cmd.Flag("containment-rule", "whether clicks inside a country's enclaves count as that country").Default(config.ContainmentRule).Envar("GEOQUIZ_CONTAINMENT_RULE").EnumVar(&config.ContainmentRule, locator.ExteriorRingOnly.String(), locator.RespectHoles.String())
	cmd.Flag("simplify-threshold", "geometries with more vertices than this are simplified").Default(fmt.Sprintf("%d", config.SimplifyThreshold)).Envar("GEOQUIZ_SIMPLIFY_THRESHOLD").IntVar(&config.SimplifyThreshold)
	cmd.Flag("simplify-tolerance", "simplification tolerance, in degrees").Default(fmt.Sprintf("%v", config.SimplifyTolerance)).Envar("GEOQUIZ_SIMPLIFY_TOLERANCE").Float64Var(&config.SimplifyTolerance)
	cmd.Flag("redis-addr", "redis address for a shared lookup cache. An in-process cache is used if not set").Envar("GEOQUIZ_REDIS_ADDR").StringVar(&config.RedisAddr)
	cmd.Flag("redis-password", "redis password").Envar("GEOQUIZ_REDIS_PASSWORD").StringVar(&config.RedisPassword)
	cmd.Flag("redis-db", "redis database number").Default("0").Envar("GEOQUIZ_REDIS_DB").IntVar(&config.RedisDB)
}

var datasetHelp = fmt.Sprintf(
	"country boundaries dataset. The type, followed by the separator (%s), followed by the path or DSN. For example: %s%smy/countries.geojson. For files the type can be left out and is taken from the extension. Defaults to the Natural Earth shapefile in the data dir",
	geoquizdal.ConnectionPathSeparator,
	geoquizdal.DatasetTypeGeoJSON,
	geoquizdal.ConnectionPathSeparator,
)

func ensurePathsConfig(fs gofs.Fs, baseDir string) (*geoquizdal.PathsConfig, errorsx.Error) {
	rootDir, err := userextra.ExpandUser(baseDir)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	pathsConfig := geoquizdal.NewPathsConfig(rootDir)

	err = pathsConfig.EnsurePaths(fs)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return pathsConfig, nil
}

type app struct {
	fs            gofs.Fs
	pathsConfig   *geoquizdal.PathsConfig
	loader        *geoquizdal.FeatureLoader
	session       *quiz.Session
	sessionConfig quiz.SessionConfig
}

func newApp(fs gofs.Fs, config *appConfig) (*app, errorsx.Error) {
	pathsConfig, err := ensurePathsConfig(fs, config.BaseDir)
	if err != nil {
		return nil, err
	}

	datasetConnString := config.DatasetConnString
	if datasetConnString == "" {
		datasetConnString = pathsConfig.DefaultDatasetPath()
	}

	datasetConnURL, err := geoquizdal.ParseDatasetConnString(datasetConnString)
	if err != nil {
		return nil, err
	}

	rasterPath := config.RasterPath
	if rasterPath == "" {
		rasterPath = pathsConfig.DefaultRasterPath()
	}

	loaderOptions := geoquizdal.LoaderOptions{
		SimplifyVertexThreshold: config.SimplifyThreshold,
		SimplifyTolerance:       config.SimplifyTolerance,
	}
	loader := geoquizdal.NewFeatureLoader(logger, fs, datasources.NewOpenSourceFunc(fs), loaderOptions)
	rasterLoader := geoquizdal.NewRasterLoader(logger, fs)

	cache := geoquizdal.NewDatasetCache(
		logger,
		func(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error) {
			return loader.Load(ctx, datasetConnURL)
		},
		func(ctx context.Context) (*geoquiz.RasterImage, errorsx.Error) {
			return rasterLoader.Load(rasterPath)
		},
	)

	sessionConfig := quiz.DefaultSessionConfig()
	locatorKind, err := quiz.ParseLocatorKind(config.LocatorKind)
	if err != nil {
		return nil, err
	}
	sessionConfig.LocatorKind = locatorKind

	containmentRule, ok := locator.ParseContainmentRule(config.ContainmentRule)
	if !ok {
		return nil, errorsx.Errorf("unknown containment rule: %q", config.ContainmentRule)
	}
	sessionConfig.ContainmentRule = containmentRule

	if config.RedisAddr != "" {
		logger.Info("caching lookups in redis at %q", config.RedisAddr)
		sessionConfig.ResultCache = locator.NewRedisResultCache(
			locator.OpenRedis(config.RedisAddr, config.RedisPassword, config.RedisDB),
			locator.RedisKeyPrefix(redisKeyPrefix, datasetIdentity(fs, datasetConnURL, config)...),
			resultCacheTTL,
		)
	} else {
		sessionConfig.ResultCache = locator.NewLRUResultCache(resultCacheCapacity, resultCacheTTL)
	}

	logger.Info("dataset: %q, raster: %q", datasetConnURL.String(), rasterPath)

	session := quiz.NewSession(logger, cache, sessionConfig, func(o *overlay.Overlay) {
		logger.Debug("overlay rebuilt for %vx%v display (%d polylines)", o.Frame.Width, o.Frame.Height, len(o.Polylines))
	})

	return &app{fs, pathsConfig, loader, session, sessionConfig}, nil
}

// datasetIdentity is everything that decides which features are loaded, in which order, and which one contains a point
func datasetIdentity(fs gofs.Fs, datasetConnURL geoquizdal.DatasetConnectionURL, config *appConfig) []string {
	identity := []string{
		datasetConnURL.String(),
		fmt.Sprintf("%d", config.SimplifyThreshold),
		fmt.Sprintf("%v", config.SimplifyTolerance),
		config.ContainmentRule,
	}

	if datasetConnURL.IsFileBased() {
		// a replaced file at the same path is a different dataset
		fileInfo, err := fs.Stat(datasetConnURL.ConnectionPath)
		if err == nil {
			identity = append(identity, fmt.Sprintf("%d:%d", fileInfo.Size(), fileInfo.ModTime().UnixNano()))
		}
	}

	return identity
}

func setupDesktopMode() errorsx.Error {
	fs := gofs.NewOsFs()

	a, err := newApp(fs, defaultAppConfig())
	if err != nil {
		return errorsx.Wrap(err)
	}

	a.session.Preload()

	router, err := createServer(a, false)
	if err != nil {
		return errorsx.Wrap(err)
	}

	server := httpextra.NewServerWithTimeouts()
	server.Addr = fmt.Sprintf("localhost:%d", DEFAULT_PORT)
	server.Handler = router

	errChan := make(chan errorsx.Error, 2)

	go func() {
		err := server.ListenAndServe()
		if err != nil {
			errChan <- errorsx.Wrap(err)
			return
		}
	}()

	go func() {
		// test server is running
		for i := 0; i < MAX_SERVER_RUNNING_ATTEMPTS; i++ {
			r, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s/api/info", server.Addr), nil)
			if err != nil {
				errChan <- errorsx.Wrap(err)
				return
			}

			client := http.Client{
				Timeout: time.Second * 10,
			}
			resp, err := client.Do(r)
			if err != nil {
				// retry after wait
				time.Sleep(time.Millisecond * 500)
				continue
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errChan <- errorsx.Errorf("expected response code %d from /api/info call, but got %d", http.StatusOK, resp.StatusCode)
				return
			}

			errChan <- nil
			return
		}

		errChan <- errorsx.Errorf("server did not start after %d attempts", MAX_SERVER_RUNNING_ATTEMPTS)
	}()

	err = <-errChan
	if err != nil {
		return errorsx.Wrap(err)
	}

	openErr := open.OpenURL(fmt.Sprintf("http://%s", server.Addr))
	if openErr != nil {
		return errorsx.Wrap(openErr)
	}

	// block until the server stops
	return <-errChan
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

func setupServe() {
	cmd := kingpin.Command("serve", "serve the quiz webserver")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).Envar("GEOQUIZ_ADDR").String()
	shouldProfile := cmd.Flag("profile", "profile the map render performance").Envar("GEOQUIZ_PROFILE").Bool()
	config := defaultAppConfig()
	registerAppConfigFlags(cmd, config)
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			a, err := newApp(gofs.NewOsFs(), config)
			if err != nil {
				return errorsx.Wrap(err)
			}

			a.session.Preload()

			router, err := createServer(a, *shouldProfile)
			if err != nil {
				return errorsx.Wrap(err)
			}

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			logger.Info("about to start serving on %q", *addr)

			serveErr := server.ListenAndServe()
			if serveErr != nil {
				return errorsx.Wrap(serveErr)
			}
			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

func setupLocate() {
	cmd := kingpin.Command("locate", "print the country at a point. Either give a longitude and latitude, or a pixel on a display of a given size")
	lon := cmd.Arg("lon", "longitude").Float64()
	lat := cmd.Arg("lat", "latitude").Float64()
	pixelX := cmd.Flag("pixel-x", "x of the click, in pixels from the left of the display").Float64()
	pixelY := cmd.Flag("pixel-y", "y of the click, in pixels from the top of the display").Float64()
	displayWidth := cmd.Flag("display-width", "width of the display, in pixels. Setting it switches to pixel mode").Float64()
	displayHeight := cmd.Flag("display-height", "height of the display, in pixels").Float64()
	asJSON := cmd.Flag("json", "print the full result as JSON").Bool()
	config := defaultAppConfig()
	registerAppConfigFlags(cmd, config)
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			a, err := newApp(gofs.NewOsFs(), config)
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer a.session.Stop()

			var result *quiz.ClickResult
			if *displayWidth != 0 {
				frame := geoquiz.DisplayFrame{Width: *displayWidth, Height: *displayHeight}
				result, err = a.session.OnUserClick(context.Background(), *pixelX, *pixelY, frame)
			} else {
				result, err = a.session.Locate(context.Background(), geoquiz.GeoPoint{Lon: *lon, Lat: *lat})
			}
			if err != nil {
				return errorsx.Wrap(err)
			}

			if *asJSON {
				encodeErr := json.NewEncoder(os.Stdout).Encode(result)
				if encodeErr != nil {
					return errorsx.Wrap(encodeErr)
				}
				return nil
			}

			fmt.Println(result.Label)
			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

var destHelp = fmt.Sprintf("prepared store to import into: %s%smy/countries.parquet or %s%suser:password@host/dbname",
	geoquizdal.DatasetTypeParquet,
	geoquizdal.ConnectionPathSeparator,
	geoquizdal.DatasetTypePostgresql,
	geoquizdal.ConnectionPathSeparator,
)

func setupImport() {
	cmd := kingpin.Command("import", "load, validate and simplify a boundaries dataset, and write it into a prepared store for faster startup")
	sourceConnString := cmd.Arg("source", "dataset to import. "+datasetHelp).Required().String()
	destConnString := cmd.Arg("dest", destHelp).Required().String()
	simplifyThreshold := cmd.Flag("simplify-threshold", "geometries with more vertices than this are simplified").Default(fmt.Sprintf("%d", geoquizdal.DefaultSimplifyVertexThreshold)).Int()
	simplifyTolerance := cmd.Flag("simplify-tolerance", "simplification tolerance, in degrees").Default(fmt.Sprintf("%v", geoquizdal.DefaultSimplifyTolerance)).Float64()
	shouldProfile := cmd.Flag("profile", "profile the import performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) (err error) {
		defer func() {
			errorx, ok := err.(errorsx.Error)
			if ok {
				log.Printf("%s\n%s\n", errorx.Error(), errorx.Stack())
			}
		}()

		fs := gofs.NewOsFs()

		if *shouldProfile {
			defer profile.Start(profile.ProfilePath(os.TempDir()), profile.CPUProfile).Stop()
		}

		startTime := time.Now()

		sourceConnURL, err := geoquizdal.ParseDatasetConnString(*sourceConnString)
		if err != nil {
			return errorsx.Wrap(err, "source", *sourceConnString)
		}

		destConnURL, err := geoquizdal.ParseDatasetConnString(*destConnString)
		if err != nil {
			return errorsx.Wrap(err, "dest", *destConnString)
		}

		finalStorage, err := datasources.NewFinalStorage(fs, destConnURL)
		if err != nil {
			return errorsx.Wrap(err)
		}

		loaderOptions := geoquizdal.LoaderOptions{
			SimplifyVertexThreshold: *simplifyThreshold,
			SimplifyTolerance:       *simplifyTolerance,
		}
		loader := geoquizdal.NewFeatureLoader(logger, fs, datasources.NewOpenSourceFunc(fs), loaderOptions)

		count, err := geoquizdal.Import(context.Background(), logger, loader, sourceConnURL, finalStorage)
		if err != nil {
			return errorsx.Wrap(err)
		}

		logger.Info("imported %d features into %q in %s", count, destConnURL.String(), time.Since(startTime))

		return nil
	})
}

func isLocalhost(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func createLocalhostMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if !isLocalhost(r.RemoteAddr) {
				http.Error(w, "connections only allowed from the same computer the server is running on", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

const (
	adminPath = "admin"
)

func createServer(a *app, shouldProfile bool) (chi.Router, errorsx.Error) {
	renderer := quizrenderer.NewRasterRenderer(fonts.DefaultFont())
	styleSet := styling.NewBuiltinStyleSet()
	game := quiz.NewGame(a.session, rand.New(rand.NewSource(time.Now().UnixNano())))

	traceFilePath := filepath.Join(a.pathsConfig.TracesDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__15_04_05")))
	logger.Info("tracing at %q", traceFilePath)

	traceFile, err := a.fs.Create(traceFilePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tracer := tracing.NewTracer(traceFile)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Route("/api", func(r chi.Router) {
		r.Mount("/info", webservices.NewInfoService(logger, a.session, styleSet, a.sessionConfig.Layout))
		r.Mount("/map.png", webservices.NewMapService(logger, a.session, renderer, styleSet, shouldProfile))
		r.Mount("/", webservices.NewQuizService(logger, a.session, game))
	})
	router.Route(fmt.Sprintf("/%s", adminPath), func(r chi.Router) {
		r.Use(createLocalhostMiddleware())
		r.Mount("/", webservices.NewAdminService(logger, a.fs, a.pathsConfig, a.session, a.loader, adminPath))
	})
	router.Handle("/metrics", metrics.Handler())
	router.Mount("/", webservices.NewClientService(logger))

	return router, nil
}
