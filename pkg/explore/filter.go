package explore

import (
	"strings"

	"github.com/soundprediction/pathfinder/pkg/types"
)

// Filter decides which link objects are worth exploring.
type Filter struct {
	// ResourcePrefix must prefix every accepted entity. Empty accepts all.
	ResourcePrefix string
	// CategoryPrefix marks classification entities, which are never followed.
	CategoryPrefix string
}

// DBpediaFilter accepts DBpedia resources except categories.
var DBpediaFilter = Filter{
	ResourcePrefix: "http://dbpedia.org/resource/",
	CategoryPrefix: "http://dbpedia.org/resource/Category:",
}

// Accept reports whether e passes the filter.
func (f Filter) Accept(e types.Entity) bool {
	s := string(e)
	if f.ResourcePrefix != "" && !strings.HasPrefix(s, f.ResourcePrefix) {
		return false
	}
	if f.CategoryPrefix != "" && strings.HasPrefix(s, f.CategoryPrefix) {
		return false
	}
	return true
}
