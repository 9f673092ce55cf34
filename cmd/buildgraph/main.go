package main

import (
	"flag"
	"log"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/graphstore"
	"github.com/ecorouting/compass/pkg/osmparser"
)

var (
	mapFile   = flag.String("f", "solo_jogja.osm.pbf", "openstreetmap pbf file for the road network graph")
	assetFile = flag.String("out", "compass_graph.graph", "output path of the compressed graph asset")
)

func main() {
	flag.Parse()

	parser := osmparser.NewOSMParser()
	nodes, edges, err := parser.Parse(*mapFile)
	if err != nil {
		log.Fatal(err)
	}

	g, err := datastructure.NewGraph(nodes, edges)
	if err != nil {
		log.Fatal(err)
	}

	if err := graphstore.Save(*assetFile, g); err != nil {
		log.Fatal(err)
	}

	log.Printf("saved road network graph with %d nodes and %d edges to %s",
		g.GetNumNodes(), g.GetNumEdges(), *assetFile)
}
