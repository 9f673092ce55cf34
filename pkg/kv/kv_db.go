// Package kv keeps an h3-cell index over the graph's nodes in badger,
// serving radius lookups ("which graph nodes sit near this point") for
// the nearest-nodes endpoint. Built once at startup from the loaded
// graph; rebuilding the graph rebuilds the cells.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/geo"

	"github.com/dgraph-io/badger/v4"
	"github.com/uber/h3-go/v4"
)

const (
	// resolution 9 cells average ~0.1 km², fine enough for node lookups
	nodeCellResolution = 9

	maxGridDiskLevel = 10
)

var (
	ErrNodesNotFound = errors.New("no nodes found near point")
)

type KVNode struct {
	ID  int32
	Lat float64
	Lon float64
}

type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

// BuildH3IndexedNodes groups every graph node into its h3 cell and
// persists the cell buckets.
func (k *KVDB) BuildH3IndexedNodes(ctx context.Context, g *datastructure.Graph) error {
	log.Printf("creating & saving h3 indexed graph nodes to key-value db...")

	cells := make(map[string][]KVNode)
	for _, node := range g.Nodes {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		cell := h3.LatLngToCell(h3.NewLatLng(node.Lat, node.Lon), nodeCellResolution)
		cells[cell.String()] = append(cells[cell.String()], KVNode{
			ID:  node.ID,
			Lat: node.Lat,
			Lon: node.Lon,
		})
	}

	batchSize := 1000
	batches := make([]batchData, 0, batchSize)
	for key, value := range cells {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		batches = append(batches, batchData{
			key:   key,
			value: value,
		})
		if len(batches) == batchSize {
			if err := k.saveBatchNodes(ctx, batches); err != nil {
				return err
			}
			batches = make([]batchData, 0, batchSize)
		}
	}

	if len(batches) > 0 {
		if err := k.saveBatchNodes(ctx, batches); err != nil {
			return err
		}
	}

	log.Printf("creating & saving h3 indexed graph nodes to key-value db done...")
	return nil
}

type batchData struct {
	key   string
	value []KVNode
}

func (k *KVDB) saveBatchNodes(ctx context.Context, batchData []batchData) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, data := range batchData {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		val, err := encodeNodes(data.value)
		if err != nil {
			return err
		}

		if err := batch.Set([]byte(data.key), val); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		log.Printf("error saving node cells: %v", err)
		return err
	}
	return nil
}

func (k *KVDB) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

// GetNearestNodesFromPoint returns up to kCount graph nodes near the
// point, ordered by haversine distance. The grid disk around the
// query cell widens until some nodes are found.
func (k *KVDB) GetNearestNodesFromPoint(lat, lon float64, kCount int) ([]KVNode, error) {
	nodes := []KVNode{}

	home := h3.NewLatLng(lat, lon)
	cell := h3.LatLngToCell(home, nodeCellResolution)

	val, err := k.get([]byte(cell.String()))
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, err
	}
	if err == nil {
		cellNodes, err := decodeNodes(val)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, cellNodes...)
	}

	for lev := 1; lev <= maxGridDiskLevel && len(nodes) == 0; lev++ {
		for _, currCell := range h3.GridDisk(cell, lev) {
			if currCell == cell {
				continue
			}
			val, err := k.get([]byte(currCell.String()))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return nil, err
			}
			cellNodes, err := decodeNodes(val)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, cellNodes...)
		}
	}

	if len(nodes) == 0 {
		return nil, ErrNodesNotFound
	}

	sort.Slice(nodes, func(i, j int) bool {
		di := geo.CalculateHaversineDistance(lat, lon, nodes[i].Lat, nodes[i].Lon)
		dj := geo.CalculateHaversineDistance(lat, lon, nodes[j].Lat, nodes[j].Lon)
		if di == dj {
			return nodes[i].ID < nodes[j].ID
		}
		return di < dj
	})

	if len(nodes) > kCount {
		nodes = nodes[:kCount]
	}

	return nodes, nil
}

func (k *KVDB) Close() {
	k.db.Close()
}
