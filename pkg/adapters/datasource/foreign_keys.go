package datasource

import "github.com/ekaya-inc/ekaya-profiler/pkg/models"

// GroupForeignKeys folds catalog rows into constraints. Rows of one
// constraint must be in key order; constraints keep the order in which
// their first row appeared.
func GroupForeignKeys(rows []ForeignKeyRow) []models.ForeignKeyConstraint {
	result := make([]models.ForeignKeyConstraint, 0)
	index := make(map[string]int)

	for _, r := range rows {
		key := r.Key
		if key == "" {
			key = r.Name
		}
		i, ok := index[key]
		if !ok {
			result = append(result, models.ForeignKeyConstraint{
				Name:           r.Name,
				ReferredSchema: r.ReferredSchema,
				ReferredTable:  r.ReferredTable,
			})
			i = len(result) - 1
			index[key] = i
		}
		result[i].ConstrainedColumns = append(result[i].ConstrainedColumns, r.Column)
		result[i].ReferredColumns = append(result[i].ReferredColumns, r.ReferredColumn)
	}
	return result
}
