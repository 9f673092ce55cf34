// Package graphstore loads and saves the serialized road-network
// asset. The on-disk format is a zstd-compressed binary encoding of
// the node and edge records; the producing tooling (cmd/buildgraph,
// cmd/precompute) owns the writing side, the engine only reads.
package graphstore

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
)

type graphAsset struct {
	Nodes []datastructure.Node
	Edges []datastructure.Edge
}

// Save writes the graph asset. Used by the build and precompute
// maintenance flows only, never on the query path.
func Save(path string, g *datastructure.Graph) error {
	asset := graphAsset{Nodes: g.Nodes, Edges: g.Edges}

	encoded, err := binary.Marshal(&asset)
	if err != nil {
		return err
	}

	compressed, err := compress(encoded)
	if err != nil {
		return err
	}

	return os.WriteFile(path, compressed, 0644)
}

// Load reads and validates the graph asset. Any missing file,
// undecodable payload, empty node set, dangling edge endpoint, or
// absent mandatory weight attribute fails with domain.ErrAssetLoad; a
// negative cost or non-finite weight fails with domain.ErrInvalidWeight.
func Load(path string) (*datastructure.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrAssetLoad, "open graph asset %s", path)
	}

	decompressed, err := decompress(data)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrAssetLoad, "decompress graph asset %s", path)
	}

	var asset graphAsset
	if err := binary.Unmarshal(decompressed, &asset); err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrAssetLoad, "decode graph asset %s", path)
	}

	g, err := datastructure.NewGraph(asset.Nodes, asset.Edges)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWeight) {
			return nil, err
		}
		return nil, domain.WrapErrorf(err, domain.ErrAssetLoad, "invalid graph asset %s", path)
	}

	return g, nil
}

func compress(data []byte) ([]byte, error) {
	out := new(bytes.Buffer)
	encoder, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}

	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return io.ReadAll(decoder)
}
