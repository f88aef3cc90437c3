package queryexec

import (
	"hash/fnv"

	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

func mergeRows(left, right Row) Row {
	values := make([]tuple.Value, 0, len(left.Values)+len(right.Values))
	values = append(values, left.Values...)
	values = append(values, right.Values...)
	return Row{Values: values}
}

func mergeAttrs(left, right []types.Attribute) []types.Attribute {
	attrs := make([]types.Attribute, 0, len(left)+len(right))
	attrs = append(attrs, left...)
	attrs = append(attrs, right...)
	return attrs
}

// BNLJoin is a block nested-loop equi-join: it buffers up to blockSize
// rows of left in memory, then streams right once per block, matching
// every right row against the whole buffered block.
type BNLJoin struct {
	left                       Iterator
	rightFactory               func() (Iterator, error)
	leftAttrIdx, rightAttrIdx  int
	blockSize                  int
	attrs                      []types.Attribute
	block                      []Row
	right                      Iterator
	pending                    []Row
	leftDone                   bool
}

// NewBNLJoin builds a block nested-loop join of left and right on
// left.Attrs()[leftAttrIdx] = right.Attrs()[rightAttrIdx]. rightFactory
// must return a fresh scan over the same right relation each call, since
// right is re-scanned once per left block.
func NewBNLJoin(left Iterator, rightFactory func() (Iterator, error), leftAttrIdx, rightAttrIdx, blockSize int) (*BNLJoin, error) {
	sample, err := rightFactory()
	if err != nil {
		return nil, err
	}
	attrs := mergeAttrs(left.Attrs(), sample.Attrs())
	sample.Close()
	if blockSize < 1 {
		blockSize = 1
	}
	return &BNLJoin{
		left:         left,
		rightFactory: rightFactory,
		leftAttrIdx:  leftAttrIdx,
		rightAttrIdx: rightAttrIdx,
		blockSize:    blockSize,
		attrs:        attrs,
	}, nil
}

func (j *BNLJoin) fillBlock() error {
	j.block = j.block[:0]
	for len(j.block) < j.blockSize {
		row, ok, err := j.left.Next()
		if err != nil {
			return err
		}
		if !ok {
			j.leftDone = true
			break
		}
		j.block = append(j.block, row)
	}
	return nil
}

func (j *BNLJoin) Next() (Row, bool, error) {
	for {
		if len(j.pending) > 0 {
			row := j.pending[0]
			j.pending = j.pending[1:]
			return row, true, nil
		}
		if j.right == nil {
			if j.leftDone {
				return Row{}, false, nil
			}
			if err := j.fillBlock(); err != nil {
				return Row{}, false, err
			}
			if len(j.block) == 0 {
				return Row{}, false, nil
			}
			right, err := j.rightFactory()
			if err != nil {
				return Row{}, false, err
			}
			j.right = right
		}

		rrow, ok, err := j.right.Next()
		if err != nil {
			return Row{}, false, err
		}
		if !ok {
			j.right.Close()
			j.right = nil
			continue
		}
		for _, lrow := range j.block {
			if valueEqual(lrow.Values[j.leftAttrIdx], rrow.Values[j.rightAttrIdx]) {
				j.pending = append(j.pending, mergeRows(lrow, rrow))
			}
		}
	}
}

func (j *BNLJoin) Attrs() []types.Attribute { return j.attrs }

func (j *BNLJoin) Close() {
	j.left.Close()
	if j.right != nil {
		j.right.Close()
	}
}

func hashKey(v tuple.Value, numPartitions int) int {
	h := fnv.New32a()
	switch {
	case v.IsNull:
		return 0
	case v.Type == types.IntType:
		h.Write([]byte{byte(v.Int), byte(v.Int >> 8), byte(v.Int >> 16), byte(v.Int >> 24)})
	case v.Type == types.RealType:
		bits := int32(v.Real)
		h.Write([]byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)})
	default:
		h.Write([]byte(v.Str))
	}
	return int(h.Sum32()) % numPartitions
}

func drainPartitioned(it Iterator, attrIdx, numPartitions int) [][]Row {
	partitions := make([][]Row, numPartitions)
	for {
		row, ok, err := it.Next()
		if err != nil || !ok {
			break
		}
		p := hashKey(row.Values[attrIdx], numPartitions)
		partitions[p] = append(partitions[p], row)
	}
	it.Close()
	return partitions
}

// GHJoin is a grace hash equi-join: both inputs are partitioned by the
// join attribute's hash into numPartitions in-memory buckets, then
// matching bucket pairs are probed against an in-memory hash table built
// from the left side's partition, whichever side is smaller. There is no
// on-disk spill; a
// partition that doesn't fit in memory is simply a larger bucket, not a
// recursive repartition.
type GHJoin struct {
	attrs   []types.Attribute
	results []Row
	pos     int
}

// NewGHJoin builds a grace hash join of left and right on
// left.Attrs()[leftAttrIdx] = right.Attrs()[rightAttrIdx]. Both
// iterators are fully drained and closed by this call.
func NewGHJoin(left, right Iterator, leftAttrIdx, rightAttrIdx, numPartitions int) (*GHJoin, error) {
	if numPartitions < 1 {
		numPartitions = 1
	}
	attrs := mergeAttrs(left.Attrs(), right.Attrs())

	leftParts := drainPartitioned(left, leftAttrIdx, numPartitions)
	rightParts := drainPartitioned(right, rightAttrIdx, numPartitions)

	var results []Row
	for p := 0; p < numPartitions; p++ {
		buildMap := make(map[any][]Row)
		for _, lrow := range leftParts[p] {
			key := valueKey(lrow.Values[leftAttrIdx])
			buildMap[key] = append(buildMap[key], lrow)
		}
		for _, rrow := range rightParts[p] {
			key := valueKey(rrow.Values[rightAttrIdx])
			for _, lrow := range buildMap[key] {
				if valueEqual(lrow.Values[leftAttrIdx], rrow.Values[rightAttrIdx]) {
					results = append(results, mergeRows(lrow, rrow))
				}
			}
		}
	}

	return &GHJoin{attrs: attrs, results: results}, nil
}

func (j *GHJoin) Next() (Row, bool, error) {
	if j.pos >= len(j.results) {
		return Row{}, false, nil
	}
	row := j.results[j.pos]
	j.pos++
	return row, true, nil
}

func (j *GHJoin) Attrs() []types.Attribute { return j.attrs }
func (j *GHJoin) Close()                   { j.pos = len(j.results) }
