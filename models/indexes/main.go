package indexes

// RowDocument is how a grouped row is stored in Elasticsearch: one
// document per (chromosome, bucket), every append pushing a cell.
type RowDocument struct {
	Chromosome string `json:"chromosome" mapstructure:"chromosome"`
	Bucket     int64  `json:"bucket" mapstructure:"bucket"`
	Cells      []Cell `json:"cells" mapstructure:"cells"`
}

// Cell holds one appended chunk of a column, base64-encoded.
type Cell struct {
	Qualifier string `json:"q" mapstructure:"q"`
	Value     string `json:"v" mapstructure:"v"`
}

var MAPPING_KEYWORD = map[string]interface{}{"type": "keyword"}
var MAPPING_LONG = map[string]interface{}{"type": "long"}

// cells are opaque to Elasticsearch: kept in _source, never indexed
var MAPPING_OPAQUE = map[string]interface{}{"type": "object", "enabled": false}

var ROW_INDEX_MAPPING = map[string]interface{}{
	"properties": map[string]interface{}{
		"chromosome": MAPPING_KEYWORD,
		"bucket":     MAPPING_LONG,
		"cells":      MAPPING_OPAQUE,
	},
}
