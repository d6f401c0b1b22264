package engine

import (
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

// BuildMergeMap reads every merged region of the sheet and maps each
// covered coordinate to its region record. Values are read at the region
// origin only; the other cells of a merge carry no value of their own.
// No partial map is returned on failure.
func BuildMergeMap(sheet sheetio.Sheet) (*models.MergeMap, []models.MergeRecord, error) {
	regions, err := sheet.MergedRegions()
	if err != nil {
		return nil, nil, &MergeMapError{SheetName: sheet.Name(), Err: err}
	}

	mergeMap := models.NewMergeMap()
	// Preallocated to full capacity: the map stores pointers into this
	// slice, so it must never reallocate.
	records := make([]models.MergeRecord, 0, len(regions))
	for _, region := range regions {
		value, err := sheet.CellValue(region.MinRow, region.MinCol)
		if err != nil {
			return nil, nil, &MergeMapError{SheetName: sheet.Name(), Err: err}
		}
		rec := models.MergeRecord{
			Range: models.CellRange{
				Start: models.CellPosition{Row: region.MinRow, Column: region.MinCol},
				End:   models.CellPosition{Row: region.MaxRow, Column: region.MaxCol},
			},
			Value: value,
		}
		records = append(records, rec)
		if err := mergeMap.Add(&records[len(records)-1]); err != nil {
			return nil, nil, &MergeMapError{SheetName: sheet.Name(), Err: err}
		}
	}
	return mergeMap, records, nil
}
