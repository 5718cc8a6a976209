package store

// buildEvidenceQuery scores chunks on their content and filters on the
// exact course name.
func buildEvidenceQuery(text, course string) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"match": map[string]interface{}{
					"content": text,
				},
			},
		},
	}

	if course != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"course_name": course},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}
}

func buildCourseNamesQuery(size int) map[string]interface{} {
	return map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"courses": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "course_name",
					"size":  size,
				},
			},
		},
	}
}
