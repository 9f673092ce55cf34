package datastructure_test

import (
	"sort"
	"testing"

	"github.com/ecorouting/compass/pkg/datastructure"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestMinHeapExtractOrder(t *testing.T) {
	pq := datastructure.NewMinHeap[int32]()

	rand.Seed(42)
	ranks := make([]float64, 0, 200)
	for i := int32(0); i < 200; i++ {
		rank := rand.Float64() * 1000
		ranks = append(ranks, rank)
		pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: rank, Item: i})
	}
	sort.Float64s(ranks)

	for i := 0; i < 200; i++ {
		node, err := pq.ExtractMin()
		assert.NoError(t, err)
		assert.Equal(t, ranks[i], node.Rank)
	}

	_, err := pq.ExtractMin()
	assert.Error(t, err)
}

func TestMinHeapDecreaseKey(t *testing.T) {
	pq := datastructure.NewMinHeap[int32]()

	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 10, Item: 0})
	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 20, Item: 1})
	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 30, Item: 2})

	err := pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: 5, Item: 2})
	assert.NoError(t, err)

	node, err := pq.ExtractMin()
	assert.NoError(t, err)
	assert.Equal(t, int32(2), node.Item)
	assert.Equal(t, 5.0, node.Rank)

	// increasing the rank must be rejected
	err = pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: 100, Item: 1})
	assert.Error(t, err)
}

func TestMinHeapDecreaseKeyAfterExtract(t *testing.T) {
	pq := datastructure.NewMinHeap[int32]()

	for i := int32(0); i < 10; i++ {
		pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: float64(10 - i), Item: i})
	}

	// extract a few so survivors got moved around inside the heap slice
	for i := 0; i < 4; i++ {
		_, err := pq.ExtractMin()
		assert.NoError(t, err)
	}

	min, err := pq.GetMin()
	assert.NoError(t, err)

	err = pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: 0.5, Item: min.Item})
	assert.NoError(t, err)
	got := pq.GetItem(min.Item)
	assert.Equal(t, 0.5, got.Rank)
}
