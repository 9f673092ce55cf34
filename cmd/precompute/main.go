package main

import (
	"flag"
	"log"
	"strings"

	"github.com/ecorouting/compass/pkg/costmodel"
	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/graphstore"
)

var (
	assetFile = flag.String("f", "compass_graph.graph", "input graph asset")
	profiles  = flag.String("profiles", "gasoline,electric", "comma separated vehicle profile keys to precompute")
	outFile   = flag.String("out", "", "output graph asset (defaults to overwriting the input)")
)

func main() {
	flag.Parse()

	out := *outFile
	if out == "" {
		out = *assetFile
	}

	g, err := graphstore.Load(*assetFile)
	if err != nil {
		log.Fatal(err)
	}

	profileKeys := []string{}
	for _, key := range strings.Split(*profiles, ",") {
		if key = strings.TrimSpace(key); key != "" {
			profileKeys = append(profileKeys, key)
		}
	}
	if len(profileKeys) == 0 {
		log.Fatal("no vehicle profiles given")
	}

	models, err := costmodel.ModelsForKeys(profileKeys)
	if err != nil {
		log.Fatal(err)
	}
	registry := costmodel.NewRegistry(models)

	for _, key := range registry.ProfileKeys() {
		energy, err := registry.Precompute(g, key)
		if err != nil {
			log.Fatal(err)
		}
		if err := g.SetEdgeWeights(datastructure.EnergyWeightName(key), energy); err != nil {
			log.Fatal(err)
		}
		log.Printf("precomputed %s energy for %d edges", key, len(energy))
	}

	if err := graphstore.Save(out, g); err != nil {
		log.Fatal(err)
	}
	log.Printf("saved graph asset with energy weights to %s", out)
}
