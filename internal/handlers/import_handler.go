package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	CreatedIDs   []string         `json:"createdIds,omitempty"`
}

type ImportHandler struct {
	products   *repository.ProductRepository
	categories *repository.CategoryRepository
}

func NewImportHandler(products *repository.ProductRepository, categories *repository.CategoryRepository) *ImportHandler {
	return &ImportHandler{products: products, categories: categories}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Wireless Mouse"},
			{Name: "category", Description: "Category name (created if missing)", Required: false, Type: "string", Example: "Accessories"},
			{Name: "price", Description: "Selling price", Required: true, Type: "decimal", Example: "24.90"},
			{Name: "cost", Description: "Purchase cost", Required: true, Type: "decimal", Example: "14.50"},
			{Name: "stock", Description: "Units on hand", Required: false, Type: "number", Example: "12"},
			{Name: "productType", Description: "OWN or DROPSHIPPING", Required: false, Type: "string", Example: "OWN"},
			{Name: "description", Description: "Product description", Required: false, Type: "string", Example: "2.4GHz wireless mouse"},
			{Name: "competitorPrice", Description: "Tracked competitor price", Required: false, Type: "decimal", Example: "27.00"},
			{Name: "supplierUrl", Description: "Supplier page URL", Required: false, Type: "string", Example: "https://supplier.example/mouse"},
			{Name: "competitorUrl", Description: "Competitor listing URL", Required: false, Type: "string", Example: "https://market.example/mouse"},
		},
		SampleData: []map[string]string{
			{
				"name":            "Wireless Mouse",
				"category":        "Accessories",
				"price":           "24.90",
				"cost":            "14.50",
				"stock":           "12",
				"productType":     "OWN",
				"description":     "2.4GHz wireless mouse",
				"competitorPrice": "27.00",
				"supplierUrl":     "",
				"competitorUrl":   "",
			},
			{
				"name":            "USB-C Hub",
				"category":        "Accessories",
				"price":           "39.00",
				"cost":            "22.00",
				"stock":           "0",
				"productType":     "DROPSHIPPING",
				"description":     "7-in-1 USB-C hub",
				"competitorPrice": "",
				"supplierUrl":     "https://supplier.example/hub",
				"competitorUrl":   "",
			},
		},
	}
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)

	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		writer.Write(row)
	}
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, sample[col.Name])
		}
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")
	f.SetCellValue("Instructions", "A3", "Column Definitions:")

	for i, col := range template.Columns {
		row := i + 4
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 20)
	f.SetColWidth("Instructions", "B", "B", 40)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}

// ImportProducts imports products from a CSV or Excel file
// POST /api/v1/products/import
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file")
		return
	}
	defer file.Close()

	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	filename := strings.ToLower(header.Filename)
	var format ImportFormat
	switch {
	case strings.HasSuffix(filename, ".csv"):
		format = ImportFormatCSV
	case strings.HasSuffix(filename, ".xlsx"):
		format = ImportFormatXLSX
	default:
		respondError(c, http.StatusBadRequest, "INVALID_FORMAT", "Only CSV and XLSX files are supported")
		return
	}

	var rows []map[string]string
	var parseErr error
	if format == ImportFormatCSV {
		rows, parseErr = h.parseCSV(file)
	} else {
		rows, parseErr = h.parseXLSX(file)
	}
	if parseErr != nil {
		respondError(c, http.StatusBadRequest, "PARSE_ERROR", parseErr.Error())
		return
	}
	if len(rows) == 0 {
		respondError(c, http.StatusBadRequest, "EMPTY_FILE", "The file contains no data rows")
		return
	}

	result := h.processImportRows(rows, validateOnly)
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1)
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

func (h *ImportHandler) parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}

func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
}

// parseRow turns one spreadsheet row into a product, resolving the category
// by name. All validation errors for the row are collected, not just the first.
func (h *ImportHandler) parseRow(row map[string]string, rowNum int, errs *[]ImportRowError) *models.Product {
	before := len(*errs)

	addErr := func(column, code, message string) {
		*errs = append(*errs, ImportRowError{Row: rowNum, Column: column, Code: code, Message: message})
	}

	if row["name"] == "" {
		addErr("name", "REQUIRED_FIELD", "Required field 'name' is empty")
	}

	price, err := decimal.NewFromString(row["price"])
	if row["price"] == "" {
		addErr("price", "REQUIRED_FIELD", "Required field 'price' is empty")
	} else if err != nil {
		addErr("price", "INVALID_DECIMAL", fmt.Sprintf("'%s' is not a valid decimal", row["price"]))
	}

	cost, err := decimal.NewFromString(row["cost"])
	if row["cost"] == "" {
		addErr("cost", "REQUIRED_FIELD", "Required field 'cost' is empty")
	} else if err != nil {
		addErr("cost", "INVALID_DECIMAL", fmt.Sprintf("'%s' is not a valid decimal", row["cost"]))
	}

	product := &models.Product{
		Name:        row["name"],
		Price:       price,
		Cost:        cost,
		ProductType: models.ProductTypeOwn,
		Description: row["description"],
	}

	if row["stock"] != "" {
		stock, err := strconv.Atoi(row["stock"])
		if err != nil || stock < 0 {
			addErr("stock", "INVALID_NUMBER", fmt.Sprintf("'%s' is not a valid stock count", row["stock"]))
		} else {
			product.Stock = stock
		}
	}

	if row["producttype"] != "" {
		pt := models.ProductType(strings.ToUpper(row["producttype"]))
		if pt != models.ProductTypeOwn && pt != models.ProductTypeDropshipping {
			addErr("productType", "INVALID_VALUE", "productType must be OWN or DROPSHIPPING")
		} else {
			product.ProductType = pt
		}
	}

	if row["competitorprice"] != "" {
		cp, err := decimal.NewFromString(row["competitorprice"])
		if err != nil {
			addErr("competitorPrice", "INVALID_DECIMAL", fmt.Sprintf("'%s' is not a valid decimal", row["competitorprice"]))
		} else {
			product.CompetitorPrice = &cp
		}
	}

	if row["supplierurl"] != "" {
		url := row["supplierurl"]
		product.SupplierURL = &url
	}
	if row["competitorurl"] != "" {
		url := row["competitorurl"]
		product.CompetitorURL = &url
	}

	if row["category"] != "" {
		category, err := h.categories.GetOrCreateByName(row["category"])
		if err != nil {
			addErr("category", "CATEGORY_RESOLVE_FAILED", err.Error())
		} else {
			product.CategoryID = &category.ID
		}
	}

	if len(*errs) > before {
		return nil
	}
	return product
}

func (h *ImportHandler) processImportRows(rows []map[string]string, validateOnly bool) *ImportResult {
	result := &ImportResult{
		TotalRows:  len(rows),
		Errors:     make([]ImportRowError, 0),
		CreatedIDs: make([]string, 0),
	}

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])

		product := h.parseRow(row, rowNum, &result.Errors)
		if product == nil {
			result.FailedCount++
			continue
		}

		if validateOnly {
			result.SuccessCount++
			continue
		}

		if err := h.products.Create(product); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, ImportRowError{
				Row:     rowNum,
				Code:    "CREATE_FAILED",
				Message: err.Error(),
			})
			continue
		}

		result.SuccessCount++
		result.CreatedIDs = append(result.CreatedIDs, product.ID.String())
	}

	result.Success = result.FailedCount == 0
	return result
}

// ExportProducts downloads the catalog as CSV or XLSX with derived pricing
// columns included
// GET /api/v1/products/export
func (h *ImportHandler) ExportProducts(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		respondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}

	products, _, err := h.products.GetAll(models.ProductFilters{}, 10000, 0)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export products")
		return
	}

	headers := []string{"name", "category", "price", "cost", "stock", "productType", "description", "profit", "marginPercent", "competitorPrice", "priceDiff", "supplierUrl", "competitorUrl"}

	toRow := func(p models.Product) []string {
		view := models.NewProductView(p)
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		competitorPrice := ""
		if p.CompetitorPrice != nil {
			competitorPrice = p.CompetitorPrice.StringFixed(2)
		}
		priceDiff := ""
		if view.PriceDiff != nil {
			priceDiff = view.PriceDiff.StringFixed(2)
		}
		supplierURL := ""
		if p.SupplierURL != nil {
			supplierURL = *p.SupplierURL
		}
		competitorURL := ""
		if p.CompetitorURL != nil {
			competitorURL = *p.CompetitorURL
		}
		return []string{
			p.Name,
			category,
			p.Price.StringFixed(2),
			p.Cost.StringFixed(2),
			strconv.Itoa(p.Stock),
			string(p.ProductType),
			p.Description,
			view.Profit.StringFixed(2),
			view.MarginPercent.StringFixed(2),
			competitorPrice,
			priceDiff,
			supplierURL,
			competitorURL,
		}
	}

	if format == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=products_export.csv")

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		writer.Write(headers)
		for _, p := range products {
			writer.Write(toRow(p))
		}
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIdx, p := range products {
		for colIdx, value := range toRow(p) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_export.xlsx")

	f.Write(c.Writer)
}
