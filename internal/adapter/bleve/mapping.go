package bleve

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

const sourceField = "_source"

// IndexMapping translates engine style field mappings ("properties" with typed
// fields) into a bleve mapping. Unknown field types are left to dynamic mapping.
func IndexMapping(mappings map[string]any) *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	documentMapping := documentMapping(mappings)

	sourceFieldMapping := bleve.NewTextFieldMapping()
	sourceFieldMapping.Index = false
	sourceFieldMapping.Store = true
	sourceFieldMapping.IncludeInAll = false
	sourceFieldMapping.IncludeTermVectors = false
	sourceFieldMapping.DocValues = false
	documentMapping.AddFieldMappingsAt(sourceField, sourceFieldMapping)

	indexMapping.DefaultMapping = documentMapping

	return indexMapping
}

func documentMapping(mappings map[string]any) *mapping.DocumentMapping {
	docMapping := bleve.NewDocumentMapping()

	properties, _ := mappings["properties"].(map[string]any)

	for name, rawProperty := range properties {
		property, ok := rawProperty.(map[string]any)
		if !ok {
			continue
		}

		fieldType, _ := property["type"].(string)

		switch fieldType {
		case "text":
			docMapping.AddFieldMappingsAt(name, bleve.NewTextFieldMapping())

		case "keyword":
			fieldMapping := bleve.NewTextFieldMapping()
			fieldMapping.Analyzer = keyword.Name
			docMapping.AddFieldMappingsAt(name, fieldMapping)

		case "date":
			docMapping.AddFieldMappingsAt(name, bleve.NewDateTimeFieldMapping())

		case "long", "integer", "short", "byte", "double", "float", "half_float", "scaled_float":
			docMapping.AddFieldMappingsAt(name, bleve.NewNumericFieldMapping())

		case "boolean":
			docMapping.AddFieldMappingsAt(name, bleve.NewBooleanFieldMapping())

		case "geo_point":
			docMapping.AddFieldMappingsAt(name, bleve.NewGeoPointFieldMapping())

		case "object", "nested", "":
			if _, hasProperties := property["properties"]; hasProperties {
				docMapping.AddSubDocumentMapping(name, documentMapping(property))
			}
		}
	}

	return docMapping
}
