package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webtray/webtray/internal/models"
)

// Stores

func (s *Server) listStores(c *gin.Context) {
	userID, _ := currentUser(c)
	respond(c, http.StatusOK, s.repo.Stores(userID), "")
}

func (s *Server) createStore(c *gin.Context) {
	in, ok := bindValid[models.StoreInput](s, c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)
	store, err := s.repo.CreateStore(userID, in)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, store, "Store created")
}

func (s *Server) getStore(c *gin.Context) {
	id, ok := pathID(s, c)
	if !ok || !s.canAccessStore(c, id) {
		return
	}
	store, err := s.repo.Store(id)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, store, "")
}

func (s *Server) updateStore(c *gin.Context) {
	id, ok := pathID(s, c)
	if !ok || !s.canAccessStore(c, id) {
		return
	}
	in, ok := bindValid[models.StoreInput](s, c)
	if !ok {
		return
	}
	store, err := s.repo.UpdateStore(id, in)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, store, "Store updated")
}

// Products

func (s *Server) listProducts(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.repo.Products(storeID, false), "")
}

func (s *Server) createProduct(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	in, ok := bindScoped[models.ProductInput](s, c, storeID)
	if !ok {
		return
	}
	product, err := s.repo.CreateProduct(in)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, product, "Product created")
}

func (s *Server) getProduct(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	product, err := s.repo.Product(storeID, id)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, product, "")
}

func (s *Server) updateProduct(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	patch, ok := bindPatch[models.ProductPatch](s, c)
	if !ok {
		return
	}
	product, err := s.repo.UpdateProduct(storeID, id, patch)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, product, "Product updated")
}

func (s *Server) deleteProduct(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	if err := s.repo.DeleteProduct(storeID, id); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Product deleted")
}

// Categories

func (s *Server) listCategories(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.repo.Categories(storeID), "")
}

func (s *Server) createCategory(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	in, ok := bindScoped[models.CategoryInput](s, c, storeID)
	if !ok {
		return
	}
	category, err := s.repo.CreateCategory(in)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, category, "Category created")
}

func (s *Server) getCategory(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	category, err := s.repo.Category(storeID, id)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, category, "")
}

func (s *Server) updateCategory(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	patch, ok := bindPatch[models.CategoryPatch](s, c)
	if !ok {
		return
	}
	category, err := s.repo.UpdateCategory(storeID, id, patch)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, category, "Category updated")
}

func (s *Server) deleteCategory(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	if err := s.repo.DeleteCategory(storeID, id); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Category deleted")
}

// Orders

func (s *Server) listOrders(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.repo.Orders(storeID), "")
}

func (s *Server) createOrder(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	in, ok := bindScoped[models.OrderInput](s, c, storeID)
	if !ok {
		return
	}
	order, err := s.repo.CreateOrder(in)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, order, "Order placed")
}

func (s *Server) getOrder(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	order, err := s.repo.Order(storeID, id)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, order, "")
}

func (s *Server) updateOrder(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	patch, ok := bindPatch[models.OrderPatch](s, c)
	if !ok {
		return
	}
	order, err := s.repo.UpdateOrder(storeID, id, patch)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, order, "Order updated")
}

func (s *Server) deleteOrder(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	if err := s.repo.DeleteOrder(storeID, id); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Order deleted")
}

// Customers

func (s *Server) listCustomers(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.repo.Customers(storeID), "")
}

func (s *Server) createCustomer(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	in, ok := bindScoped[models.CustomerInput](s, c, storeID)
	if !ok {
		return
	}
	customer, err := s.repo.CreateCustomer(in)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, customer, "Customer created")
}

func (s *Server) getCustomer(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	customer, err := s.repo.Customer(storeID, id)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, customer, "")
}

func (s *Server) updateCustomer(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	patch, ok := bindPatch[models.CustomerPatch](s, c)
	if !ok {
		return
	}
	customer, err := s.repo.UpdateCustomer(storeID, id, patch)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, customer, "Customer updated")
}

func (s *Server) deleteCustomer(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	if err := s.repo.DeleteCustomer(storeID, id); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Customer deleted")
}

// Summaries

func (s *Server) inventorySummary(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.repo.InventorySummary(storeID), "")
}

func (s *Server) orderSummary(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.repo.OrderSummary(storeID), "")
}

func (s *Server) customerSummary(c *gin.Context) {
	storeID, ok := s.storeScope(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.repo.CustomerSummary(storeID), "")
}

// Storefront

func (s *Server) storefrontStore(c *gin.Context) {
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	store, err := s.repo.Store(id)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, store, "")
}

func (s *Server) storefrontProducts(c *gin.Context) {
	id, ok := pathID(s, c)
	if !ok {
		return
	}
	if _, err := s.repo.Store(id); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, s.repo.Products(id, true), "")
}
