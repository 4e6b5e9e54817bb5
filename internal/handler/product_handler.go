package handler

import (
	"net/http"

	"shop_api/internal/middleware"
	"shop_api/internal/model"
	"shop_api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductHandler serves /api/products and /api/categories
type ProductHandler struct {
	products  service.ProductService
	purchases service.PurchaseService
	log       *zap.Logger
}

func NewProductHandler(products service.ProductService, purchases service.PurchaseService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, purchases: purchases, log: log}
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req model.CreateProductRequest
	if !BindJSON(c, &req) {
		return
	}
	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateProductRequest
	if !BindJSON(c, &req) {
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *ProductHandler) CategoryStats(c *gin.Context) {
	stats, err := h.products.CategoryStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UploadProducts imports the spreadsheet sent in the "file" form field.
func (h *ProductHandler) UploadProducts(c *gin.Context) {
	defer cleanupMultipart(c)

	file, err := c.FormFile("file")
	if err != nil {
		RespondBadRequest(c, "file is required", gin.H{"reason": err.Error()})
		return
	}
	res, err := h.products.BulkImport(c.Request.Context(), file)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// AttachImages stores up to ten files sent in the "images" form field.
func (h *ProductHandler) AttachImages(c *gin.Context) {
	defer cleanupMultipart(c)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		RespondBadRequest(c, "multipart form expected", gin.H{"reason": err.Error()})
		return
	}

	images, err := h.products.AttachImages(c.Request.Context(), id, form.File["images"])
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, images)
}

func (h *ProductHandler) DeleteImage(c *gin.Context) {
	id, ok := pathID(c, "imageId")
	if !ok {
		return
	}
	if err := h.products.DeleteImage(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

type buyRequest struct {
	UserID *int64 `json:"userId" binding:"omitempty,gt=0"`
}

// Buy purchases one unit for the caller. Admins may buy on behalf of another
// user by passing userId in the body.
func (h *ProductHandler) Buy(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	var req buyRequest
	if c.Request.ContentLength > 0 && !BindJSON(c, &req) {
		return
	}
	if req.UserID != nil && *req.UserID != userID {
		if auth := middleware.Authorizer(c); auth == nil || !auth.Can(model.CapManageUsers) {
			RespondError(c, http.StatusUnauthorized, "unauthorized", "Only admins can buy for another user", nil)
			return
		}
		userID = *req.UserID
	}

	purchase, err := h.purchases.Buy(c.Request.Context(), productID, userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product bought successfully", "purchase": purchase})
}

func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.products.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req model.CreateCategoryRequest
	if !BindJSON(c, &req) {
		return
	}
	category, err := h.products.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// RegisterProductRoutes registers catalog, image, purchase and category routes
func (h *ProductHandler) RegisterProductRoutes(rg *gin.RouterGroup, authMW, catalogAdminMW gin.HandlerFunc) {
	products := rg.Group("/products")
	{
		products.GET("", h.List)
		products.GET("/category-stats", h.CategoryStats)
		products.GET("/:id", h.Get)
		products.POST("", h.Create)
		products.PUT("/:id", authMW, h.Update)
		products.DELETE("/:id", authMW, catalogAdminMW, h.Delete)

		products.POST("/upload-products", authMW, catalogAdminMW, h.UploadProducts)
		products.POST("/:id/images", authMW, h.AttachImages)
		products.DELETE("/images/:imageId", authMW, catalogAdminMW, h.DeleteImage)
		products.POST("/buyProduct/:id", authMW, h.Buy)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", authMW, catalogAdminMW, h.CreateCategory)
	}
}
