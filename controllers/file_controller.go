package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"driveuploader/middleware"
	"driveuploader/models"
	"driveuploader/services"
	"driveuploader/utils"

	"github.com/gin-gonic/gin"
)

// UploadSettings bound what the upload endpoints accept.
type UploadSettings struct {
	MaxContentLength  int64
	AllowedExtensions map[string]struct{}
	EnforceExtensions bool
	ListPageSize      int
}

type FileController struct {
	pages    *pageRenderer
	storage  services.StorageFactory
	video    services.VideoFetcher
	settings UploadSettings
}

func NewFileController(sessions *middleware.SessionManager, storage services.StorageFactory, video services.VideoFetcher, settings UploadSettings, loginEnabled bool) *FileController {
	return &FileController{
		pages:    &pageRenderer{sessions: sessions, loginEnabled: loginEnabled},
		storage:  storage,
		video:    video,
		settings: settings,
	}
}

func (fc *FileController) ListFiles(c *gin.Context) {
	storage, err := storageFor(c, fc.storage)
	if errors.Is(err, services.ErrCredentialMissing) {
		fc.pages.flash(c, "warning", credentialsWarning)
		fc.pages.redirect(c, "/setup")
		return
	}

	var files []models.FileRecord
	if err == nil {
		files, err = storage.ListFiles(c.Request.Context(), fc.settings.ListPageSize)
	}
	if err != nil {
		logRequestError(c, "Error listing files", err)
		fc.pages.flash(c, "danger", "Error listing files: "+err.Error())
		files = []models.FileRecord{}
	}

	fc.pages.render(c, http.StatusOK, "files.html", gin.H{"Files": files})
}

func (fc *FileController) UploadFile(c *gin.Context) {
	if fc.settings.MaxContentLength > 0 {
		if c.Request.ContentLength > fc.settings.MaxContentLength {
			utils.PayloadTooLargeResponse(c, tooLargeMessage(fc.settings.MaxContentLength))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, fc.settings.MaxContentLength)
	}

	storage, err := storageFor(c, fc.storage)
	if err != nil {
		fc.uploadError(c, "Error uploading file", err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			utils.PayloadTooLargeResponse(c, tooLargeMessage(fc.settings.MaxContentLength))
		case errors.Is(err, http.ErrMissingFile) && hasFormValue(c, "file"):
			// An empty file input arrives as a plain form value.
			utils.BadRequestResponse(c, "No file selected")
		default:
			utils.BadRequestResponse(c, "No file part")
		}
		return
	}
	if header.Filename == "" {
		utils.BadRequestResponse(c, "No file selected")
		return
	}

	if err := utils.ValidateFileName(header.Filename); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	filename := utils.SanitizeFilename(header.Filename)
	if fc.settings.EnforceExtensions && !utils.IsAllowed(filename, fc.settings.AllowedExtensions) {
		utils.BadRequestResponse(c, fmt.Sprintf("File type not allowed: %s", filename))
		return
	}

	f, err := header.Open()
	if err != nil {
		fc.uploadError(c, "Error uploading file", err)
		return
	}
	defer f.Close()

	fileID, err := storage.UploadFromLocal(c.Request.Context(), f, filename, utils.ResolveContentType(filename))
	if err != nil {
		fc.uploadError(c, "Error uploading file", err)
		return
	}

	utils.SuccessResponse(c, fmt.Sprintf("File %s uploaded successfully", filename), fileID)
}

func (fc *FileController) UploadFromURL(c *gin.Context) {
	storage, err := storageFor(c, fc.storage)
	if err != nil {
		fc.uploadError(c, "Error uploading from URL", err)
		return
	}

	sourceURL := strings.TrimSpace(c.PostForm("url"))
	if sourceURL == "" {
		utils.BadRequestResponse(c, "No URL provided")
		return
	}

	fileID, err := storage.UploadFromURL(c.Request.Context(), sourceURL)
	if err != nil {
		fc.uploadError(c, "Error uploading from URL", err)
		return
	}

	utils.SuccessResponse(c, "File uploaded from URL successfully", fileID)
}

func (fc *FileController) UploadFromYouTube(c *gin.Context) {
	storage, err := storageFor(c, fc.storage)
	if err != nil {
		fc.uploadError(c, "Error uploading from YouTube", err)
		return
	}

	videoURL := strings.TrimSpace(c.PostForm("youtube_url"))
	if videoURL == "" {
		utils.BadRequestResponse(c, "No YouTube URL provided")
		return
	}

	fileID, err := services.UploadFromVideoSource(c.Request.Context(), videoURL, storage, fc.video)
	if err != nil {
		fc.uploadError(c, "Error uploading from YouTube", err)
		return
	}

	utils.SuccessResponse(c, "YouTube video uploaded successfully", fileID)
}

func (fc *FileController) DeleteFile(c *gin.Context) {
	storage, err := storageFor(c, fc.storage)
	if errors.Is(err, services.ErrCredentialMissing) {
		fc.pages.flash(c, "warning", credentialsWarning)
		fc.pages.redirect(c, "/setup")
		return
	}
	if err == nil {
		err = storage.DeleteFile(c.Request.Context(), c.Param("id"))
	}

	if err != nil {
		logRequestError(c, "Error deleting file", err)
		fc.pages.flash(c, "danger", "Error deleting file: "+err.Error())
	} else {
		fc.pages.flash(c, "success", "File deleted successfully!")
	}
	fc.pages.redirect(c, "/files")
}

// uploadError maps a failed upload onto the JSON error response.
func (fc *FileController) uploadError(c *gin.Context, message string, err error) {
	logRequestError(c, message, err)

	var videoErr *services.VideoDownloadError
	switch {
	case errors.Is(err, services.ErrCredentialMissing):
		utils.UnauthorizedResponse(c, credentialsWarning)
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrVideoResolution):
		utils.BadRequestResponse(c, err.Error())
	case errors.As(err, &videoErr):
		utils.InternalServerErrorResponse(c, videoErr.Error())
	default:
		utils.InternalServerErrorResponse(c, err.Error())
	}
}

func hasFormValue(c *gin.Context, key string) bool {
	if c.Request.MultipartForm == nil {
		return false
	}
	_, ok := c.Request.MultipartForm.Value[key]
	return ok
}

func tooLargeMessage(limit int64) string {
	return "File exceeds the maximum upload size of " + models.HumanReadableSize(limit)
}
