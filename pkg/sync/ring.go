package sync

import (
	"strconv"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over stripe indices. Each stripe owns
// replicas points on the ring, and a key belongs to the stripe owning the
// first point at or after the key's hash.
type ring struct {
	points *treemap.Map
	first  int
}

func newRing(stripes, replicas uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < int(stripes); stripe++ {
		prefix := "stripe" + strconv.Itoa(stripe) + "/"
		for replica := 0; replica < int(replicas); replica++ {
			points.Put(hash([]byte(prefix+strconv.Itoa(replica))), stripe)
		}
	}

	r := &ring{points: points}
	if _, stripe := points.Min(); stripe != nil {
		r.first = stripe.(int)
	}
	return r
}

// shard returns the stripe index owning key.
func (r *ring) shard(key []byte) int {
	if _, stripe := r.points.Ceiling(hash(key)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}

func hash(b []byte) int64 {
	h, _ := murmur3.Sum128(b)
	return int64(h)
}
