package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/gin-gonic/gin"
)

func PizzaRoutes(server *gin.Engine) {
	public := server.Group("", middlewares.OptionalAuth())
	{
		public.GET("/pizzas", controllers.GetPizzas)
		public.GET("/pizzas/:id", controllers.GetPizza)
		public.GET("/toppings", controllers.GetToppings)
	}

	admin := server.Group("", middlewares.RequireAuth(), middlewares.RequireRole(models.RoleAdmin))
	{
		admin.POST("/pizzas", controllers.CreatePizza)
		admin.PUT("/pizzas/:id", controllers.UpdatePizza)
		admin.DELETE("/pizzas/:id", controllers.DeletePizza)
		admin.POST("/pizza-images", controllers.UploadPizzaImage)
		admin.POST("/toppings", controllers.CreateTopping)
	}
}
