package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/ecorouting/compass/pkg/engine/router"
	"github.com/ecorouting/compass/pkg/graphstore"
	"github.com/ecorouting/compass/pkg/kv"
	"github.com/ecorouting/compass/pkg/server/rest"
	"github.com/ecorouting/compass/pkg/server/rest/service"
	"github.com/ecorouting/compass/pkg/spatialindex"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	assetFile  = flag.String("f", "compass_graph.graph", "road network graph asset")
	kvDir      = flag.String("kvdir", "./compass_kv", "badger directory for the h3 node index")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	g, err := graphstore.Load(*assetFile)
	if err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "load_graph")

	index := spatialindex.BuildFromNodes(g.Nodes)
	recordMemProfile(memprofile, "build_spatial_index")

	db, err := badger.Open(badger.DefaultOptions(*kvDir))
	if err != nil {
		log.Fatal(err)
	}

	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	if err := kvDB.BuildH3IndexedNodes(context.Background(), g); err != nil {
		log.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	engine := router.NewRoutingEngine(g, index)

	navigatorSvc := service.NewNavigationService(engine, kvDB)
	recordMemProfile(memprofile, "service_init")

	rest.NavigatorRouter(r, navigatorSvc)

	fmt.Printf("\nroad network ready, %d nodes / %d edges\n", g.GetNumNodes(), g.GetNumEdges())
	fmt.Printf("server started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
