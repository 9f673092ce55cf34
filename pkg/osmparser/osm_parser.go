// Package osmparser turns an OpenStreetMap pbf extract into the
// routable node/edge records consumed by graphstore. This is build
// tooling; the engine itself only ever sees the finished asset.
package osmparser

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/geo"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/schollz/progressbar/v3"
)

const (
	kmToMiles  = 0.621371
	kphToMph   = 0.621371
	defaultMph = 30.0
)

var skipHighway = map[string]struct{}{
	"footway":      {},
	"construction": {},
	"cycleway":     {},
	"path":         {},
	"pedestrian":   {},
	"busway":       {},
	"steps":        {},
	"bridleway":    {},
	"corridor":     {},
	"platform":     {},
	"proposed":     {},
	"track":        {},
}

// roadTypeDefaultSpeedMph mirrors common per-class speed assumptions
// for ways without an explicit maxspeed tag.
func roadTypeDefaultSpeedMph(roadType string) float64 {
	switch roadType {
	case "motorway":
		return 60
	case "trunk":
		return 53
	case "primary":
		return 47
	case "secondary":
		return 40
	case "tertiary":
		return 31
	case "unclassified":
		return 31
	case "residential":
		return 19
	case "service":
		return 12
	case "motorway_link":
		return 56
	case "trunk_link":
		return 50
	case "primary_link":
		return 43
	case "secondary_link":
		return 37
	case "tertiary_link":
		return 31
	case "living_street":
		return 12
	default:
		return defaultMph
	}
}

type nodeCoord struct {
	lat float64
	lon float64
}

type wayData struct {
	speedMph float64
	forward  bool
	backward bool
	nodeIDs  []int64
}

type OsmParser struct {
	wayNodeMap      map[int64]struct{}
	acceptedNodeMap map[int64]nodeCoord
	nodeIDMap       map[int64]int32
}

func NewOSMParser() *OsmParser {
	return &OsmParser{
		wayNodeMap:      make(map[int64]struct{}),
		acceptedNodeMap: make(map[int64]nodeCoord),
		nodeIDMap:       make(map[int64]int32),
	}
}

// Parse scans the pbf twice (ways then nodes) and builds the node and
// edge records: distance_miles from haversine length, speed_mph from
// the maxspeed tag or the road-class default, travel_time in minutes,
// grade zeroed until the elevation pipeline fills it in.
func (p *OsmParser) Parse(mapFile string) ([]datastructure.Node, []datastructure.Edge, error) {
	ways, err := p.scanWays(mapFile)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("found %d road ways in %s", len(ways), mapFile)

	if err := p.scanNodes(mapFile); err != nil {
		return nil, nil, err
	}
	log.Printf("found %d road nodes in %s", len(p.acceptedNodeMap), mapFile)

	return p.buildGraphRecords(ways)
}

func (p *OsmParser) scanWays(mapFile string) ([]wayData, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 0)
	defer scanner.Close()

	ways := []wayData{}
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || !acceptOsmWay(way) {
			continue
		}

		forward, backward := wayDirections(way)
		wd := wayData{
			speedMph: waySpeedMph(way),
			forward:  forward,
			backward: backward,
			nodeIDs:  make([]int64, 0, len(way.Nodes)),
		}
		for _, wayNode := range way.Nodes {
			nodeID := int64(wayNode.ID)
			wd.nodeIDs = append(wd.nodeIDs, nodeID)
			p.wayNodeMap[nodeID] = struct{}{}
		}
		ways = append(ways, wd)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ways, nil
}

func (p *OsmParser) scanNodes(mapFile string) error {
	f, err := os.Open(mapFile)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 0)
	defer scanner.Close()

	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, used := p.wayNodeMap[int64(node.ID)]; !used {
			continue
		}
		p.acceptedNodeMap[int64(node.ID)] = nodeCoord{lat: node.Lat, lon: node.Lon}
	}
	return scanner.Err()
}

func (p *OsmParser) buildGraphRecords(ways []wayData) ([]datastructure.Node, []datastructure.Edge, error) {
	bar := progressbar.NewOptions(len(ways),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan][2/3][reset] building road network graph..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	nodes := []datastructure.Node{}
	edges := []datastructure.Edge{}

	for _, way := range ways {
		for i := 0; i+1 < len(way.nodeIDs); i++ {
			fromCoord, okFrom := p.acceptedNodeMap[way.nodeIDs[i]]
			toCoord, okTo := p.acceptedNodeMap[way.nodeIDs[i+1]]
			if !okFrom || !okTo {
				// incomplete extract, the way crosses the clip boundary
				continue
			}

			fromID := p.internNode(way.nodeIDs[i], fromCoord, &nodes)
			toID := p.internNode(way.nodeIDs[i+1], toCoord, &nodes)
			if fromID == toID {
				continue
			}

			distanceMiles := geo.CalculateHaversineDistance(fromCoord.lat, fromCoord.lon,
				toCoord.lat, toCoord.lon) * kmToMiles

			if way.forward {
				edges = appendEdge(edges, fromID, toID, distanceMiles, way.speedMph)
			}
			if way.backward {
				edges = appendEdge(edges, toID, fromID, distanceMiles, way.speedMph)
			}
		}
		bar.Add(1)
	}
	fmt.Println()

	if len(nodes) == 0 || len(edges) == 0 {
		return nil, nil, fmt.Errorf("no routable road network found in extract")
	}

	return nodes, edges, nil
}

func (p *OsmParser) internNode(osmID int64, coord nodeCoord, nodes *[]datastructure.Node) int32 {
	if id, ok := p.nodeIDMap[osmID]; ok {
		return id
	}
	id := int32(len(*nodes))
	p.nodeIDMap[osmID] = id
	*nodes = append(*nodes, datastructure.NewNode(id, coord.lat, coord.lon))
	return id
}

func appendEdge(edges []datastructure.Edge, fromID, toID int32, distanceMiles, speedMph float64) []datastructure.Edge {
	travelTimeMinutes := distanceMiles / speedMph * 60.0
	return append(edges, datastructure.NewEdge(int32(len(edges)), fromID, toID, map[string]float64{
		datastructure.DistanceWeightName:   distanceMiles,
		datastructure.TravelTimeWeightName: travelTimeMinutes,
		datastructure.SpeedWeightName:      speedMph,
		datastructure.GradeWeightName:      0,
	}))
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	if highway == "" {
		return false
	}
	if _, skip := skipHighway[highway]; skip {
		return false
	}
	if access := way.Tags.Find("access"); access == "no" || access == "private" {
		return false
	}
	return len(way.Nodes) >= 2
}

func wayDirections(way *osm.Way) (forward, backward bool) {
	switch way.Tags.Find("oneway") {
	case "yes", "1", "true":
		return true, false
	case "-1":
		return false, true
	}
	if way.Tags.Find("junction") == "roundabout" {
		return true, false
	}
	return true, true
}

func waySpeedMph(way *osm.Way) float64 {
	maxspeed := way.Tags.Find("maxspeed")
	if maxspeed != "" {
		value := maxspeed
		isMph := strings.Contains(maxspeed, "mph")
		value = strings.TrimSpace(strings.TrimSuffix(value, "mph"))
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			if isMph {
				return parsed
			}
			return parsed * kphToMph
		}
	}
	return roadTypeDefaultSpeedMph(way.Tags.Find("highway"))
}
