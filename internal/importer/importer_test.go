package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadRows_CSV(t *testing.T) {
	data := "Name,Price,Stock,Description,categoryId\nRed Shoes,49.5,3,Comfy,2\n,,,,\nBlue Hat,10,,,\n"

	rows, err := ReadRows("products.csv", strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Red Shoes", rows[0].Cells["name"])
	assert.Equal(t, "2", rows[0].Cells["category_id"])
	assert.Equal(t, "", rows[1].Cells["stock"])
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 4, rows[1].Line)
}

func TestReadRows_CSVKeepsSourceLines(t *testing.T) {
	data := "name,price\n\nRed Shoes,1\n,\n\nBlue Hat,NaN\n"

	rows, err := ReadRows("products.csv", strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Line)
	assert.Equal(t, 6, rows[1].Line)

	_, err = ToDrafts(rows)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 6, rowErr.Line)
	assert.Equal(t, "price", rowErr.Field)
}

func TestReadRows_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "price", "stock", "category_id"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Red Shoes", 49.5, 3, 1}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Blue Hat", 10, 0, nil}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadRows("products.xlsx", &buf)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "49.5", rows[0].Cells["price"])
	assert.Equal(t, "Blue Hat", rows[1].Cells["name"])
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 3, rows[1].Line)
}

func TestReadRows_XLSXKeepsSourceLines(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "price"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Red Shoes", 1}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{"Blue Hat", "-3"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadRows("products.xlsx", &buf)
	require.NoError(t, err)

	_, err = ToDrafts(rows)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 5, rowErr.Line)
}

func TestReadRows_Empty(t *testing.T) {
	_, err := ReadRows("products.csv", strings.NewReader("name,price,stock\n"))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = ReadRows("products.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoRows)

	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	_, err = ReadRows("products.xlsx", &buf)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestReadRows_UnsupportedFormat(t *testing.T) {
	_, err := ReadRows("products.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNormaliseHeader(t *testing.T) {
	assert.Equal(t, "category_id", normaliseHeader("categoryId"))
	assert.Equal(t, "category_id", normaliseHeader("Category ID"))
	assert.Equal(t, "category_id", normaliseHeader("category_id"))
	assert.Equal(t, "name", normaliseHeader("\ufeffName"))
}

func TestToDrafts(t *testing.T) {
	drafts, err := ToDrafts([]Row{
		{Line: 2, Cells: map[string]string{"name": "Red Shoes", "price": "49.5", "stock": "3", "description": "Comfy", "category_id": "2"}},
		{Line: 3, Cells: map[string]string{"name": "Blue Hat", "price": "10"}},
	})

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, 49.5, drafts[0].Price)
	assert.Equal(t, 3, drafts[0].Stock)
	assert.Equal(t, "Comfy", *drafts[0].Description)
	assert.Equal(t, int64(2), *drafts[0].CategoryID)
	assert.Nil(t, drafts[1].Description)
	assert.Nil(t, drafts[1].CategoryID)
	assert.Equal(t, 0, drafts[1].Stock)
}

func TestToDrafts_InvalidPrice(t *testing.T) {
	for _, price := range []string{"cheap", "-1", "NaN", "nan", "Inf", "+Infinity", "-inf", "10000000000", "1e300"} {
		t.Run(price, func(t *testing.T) {
			_, err := ToDrafts([]Row{{Line: 7, Cells: map[string]string{"name": "Red Shoes", "price": price}}})

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, 7, rowErr.Line)
			assert.Equal(t, "price", rowErr.Field)
		})
	}
}

func TestToDrafts_Bounds(t *testing.T) {
	drafts, err := ToDrafts([]Row{{Line: 2, Cells: map[string]string{"name": "Gold Bar", "price": "9999999999.99", "stock": "2147483647"}}})
	require.NoError(t, err)
	assert.Equal(t, 9999999999.99, drafts[0].Price)
	assert.Equal(t, 2147483647, drafts[0].Stock)

	_, err = ToDrafts([]Row{{Line: 2, Cells: map[string]string{"name": "Gold Bar", "price": "1", "stock": "2147483648"}}})
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "stock", rowErr.Field)
}

func TestToDrafts_MissingName(t *testing.T) {
	_, err := ToDrafts([]Row{{Line: 2, Cells: map[string]string{"price": "1"}}})
	assert.ErrorContains(t, err, "name")
}
