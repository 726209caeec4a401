package routes

import (
	"driveuploader/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterFileRoutes(router *gin.Engine, fileController *controllers.FileController) {
	router.GET("/files", fileController.ListFiles)
	router.POST("/file/delete/:id", fileController.DeleteFile)

	// JSON upload endpoints used by the uploads page.
	upload := router.Group("/upload")
	{
		upload.POST("/file", fileController.UploadFile)
		upload.POST("/url", fileController.UploadFromURL)
		upload.POST("/youtube", fileController.UploadFromYouTube)
	}
}
