package cases

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/internal/storage"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/sanitize"
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

/* ================================ Folders =============================== */

type CreateFolderRequest struct {
	FirmCode string `json:"firm_code"`
	Name     string `json:"name" validate:"required,max=120"`
}

func folderCase(f *models.CaseFolder) uuid.UUID { return f.CaseID }

// ListFolders godoc
// @Summary      List folders
// @Tags         files
// @Produce      json
// @Param        id         path  string true  "case id"
// @Param        firm_code  query string false "firm code"
// @Success      200  {array}   models.CaseFolder
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/folders [get]
func (h *Handler) ListFolders(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	if _, err := getCase(ctx, h.db, firm.ID, caseID); err != nil {
		return err
	}
	out := []models.CaseFolder{}
	if err := h.db.WithContext(ctx).Where("case_id = ?", caseID).Order("name ASC").Find(&out).Error; err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(out)
}

// CreateFolder godoc
// @Summary      Create folder
// @Description  The slug is derived from the name and must be unique within the case
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "case id"
// @Param        payload  body  CreateFolderRequest  true  "Folder"
// @Success      201  {object}  models.CaseFolder
// @Failure      409  {object}  models.ErrorResponse
// @Router       /cases/{id}/folders [post]
func (h *Handler) CreateFolder(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in CreateFolderRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Check(in); err != nil {
		return err
	}
	slug := sanitize.Slug(in.Name)
	if slug == "" {
		return apperr.Invalid("name", "Must contain a letter or digit")
	}

	f := models.CaseFolder{
		CaseID: caseID,
		Name:   in.Name,
		Slug:   slug,
		Path:   path.Join("cases", caseID.String(), slug),
	}
	err = h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		if _, err := getCase(ctx, tx, firm.ID, caseID); err != nil {
			return err
		}
		if err := tx.Create(&f).Error; err != nil {
			return apperr.FromDB(err, "", "folder already exists")
		}
		return audit.Record(ctx, tx, audit.CreateFolder, audit.Details{
			"case_id": caseID, "folder_id": f.ID, "slug": f.Slug,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

// DeleteFolder godoc
// @Summary      Delete folder
// @Description  Files inside are kept and detached from the folder
// @Tags         files
// @Param        id         path  string true  "case id"
// @Param        folderId   path  string true  "folder id"
// @Param        firm_code  query string false "firm code"
// @Success      204
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/folders/{folderId} [delete]
func (h *Handler) DeleteFolder(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	folderID, err := parseID(c, "folderId")
	if err != nil {
		return err
	}
	err = h.inFirm(c, c.Query("firm_code"), func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		f, err := child(ctx, tx, firm.ID, caseID, folderID, "case_folders", "folder", folderCase)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.CaseFile{}).Where("folder_id = ?", f.ID).Update("folder_id", nil).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tx.Delete(f).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.DeleteFolder, audit.Details{
			"case_id": caseID, "folder_id": f.ID, "slug": f.Slug,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

/* ================================= Files ================================ */

type PresignRequest struct {
	FirmCode    string  `json:"firm_code"`
	Filename    string  `json:"filename" validate:"required,max=255"`
	FolderSlug  *string `json:"folder_slug" validate:"omitempty,max=120"`
	ContentType *string `json:"content_type" validate:"omitempty,max=120"`
}

type ConfirmRequest struct {
	FirmCode string    `json:"firm_code"`
	CaseID   uuid.UUID `json:"case_id" validate:"required"`
	Key      string    `json:"key" validate:"required,max=1024"`
}

type DownloadResponse struct {
	URL string `json:"url"`
}

// ListFiles godoc
// @Summary      List files
// @Tags         files
// @Produce      json
// @Param        id         path  string true  "case id"
// @Param        firm_code  query string false "firm code"
// @Success      200  {array}   models.CaseFile
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/files [get]
func (h *Handler) ListFiles(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	if _, err := getCase(ctx, h.db, firm.ID, caseID); err != nil {
		return err
	}
	out := []models.CaseFile{}
	err = h.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(out)
}

// PresignFile godoc
// @Summary      Presign upload
// @Description  Ask the file service for an upload target for this case
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "case id"
// @Param        payload  body  PresignRequest  true  "File"
// @Success      200  {object}  storage.Upload
// @Failure      404  {object}  models.ErrorResponse
// @Failure      503  {object}  models.ErrorResponse  "file service unavailable"
// @Router       /cases/{id}/files/presign [post]
func (h *Handler) PresignFile(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in PresignRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	in.Filename = strings.TrimSpace(in.Filename)
	if err := validation.Check(in); err != nil {
		return err
	}
	ctx := c.UserContext()

	firm, err := auth.ResolveFirm(c, h.db, in.FirmCode)
	if err != nil {
		return err
	}
	if _, err := getCase(ctx, h.db, firm.ID, caseID); err != nil {
		return err
	}
	slug := sanitize.Optional(in.FolderSlug)
	if slug != nil {
		var n int64
		if err := h.db.WithContext(ctx).Model(&models.CaseFolder{}).
			Where("case_id = ? AND slug = ?", caseID, *slug).Count(&n).Error; err != nil {
			return apperr.Internal(err)
		}
		if n == 0 {
			return apperr.Invalid("folder_slug", "Folder not found in this case")
		}
	}

	// No transaction is held open across the network call.
	up, err := h.files.Presign(ctx, storage.PresignRequest{
		CaseID:      caseID,
		Filename:    in.Filename,
		FolderSlug:  slug,
		ContentType: sanitize.Optional(in.ContentType),
	})
	if err != nil {
		return err
	}
	return c.JSON(up)
}

// ConfirmFile godoc
// @Summary      Confirm upload
// @Description  Confirm a finished upload and record it on the case (upsert by storage key)
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        payload  body  ConfirmRequest  true  "Storage key"
// @Success      200  {object}  models.CaseFile
// @Failure      404  {object}  models.ErrorResponse
// @Failure      503  {object}  models.ErrorResponse
// @Router       /files/confirm [post]
func (h *Handler) ConfirmFile(c *fiber.Ctx) error {
	var in ConfirmRequest
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	ctx := c.UserContext()

	firm, err := auth.ResolveFirm(c, h.db, in.FirmCode)
	if err != nil {
		return err
	}
	if _, err := getCase(ctx, h.db, firm.ID, in.CaseID); err != nil {
		return err
	}

	cf, err := h.files.Confirm(ctx, strings.TrimSpace(in.Key))
	if err != nil {
		return err
	}
	if cf.CaseID != uuid.Nil && cf.CaseID != in.CaseID {
		return apperr.BadRequest("file does not belong to this case")
	}

	var out models.CaseFile
	err = h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		if _, err := getCase(ctx, tx, firm.ID, in.CaseID); err != nil {
			return err
		}
		out = models.CaseFile{
			CaseID:      in.CaseID,
			Name:        cf.Name,
			Provider:    cf.Provider,
			Bucket:      cf.Bucket,
			S3Key:       cf.Key,
			SizeBytes:   cf.SizeBytes,
			ContentType: cf.ContentType,
			Status:      models.FileStatus(cf.Status),
			StorageURL:  cf.URL,
		}
		if cf.ID != nil {
			out.ID = *cf.ID
		}
		if out.Status == "" {
			out.Status = models.FileUploaded
		}
		if out.Name == "" {
			out.Name = path.Base(cf.Key)
		}
		if cf.FolderSlug != nil {
			var folder models.CaseFolder
			err := tx.Where("case_id = ? AND slug = ?", in.CaseID, *cf.FolderSlug).First(&folder).Error
			if err == nil {
				out.FolderID = &folder.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Internal(err)
			}
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "s3_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "folder_id", "provider", "bucket", "size_bytes",
				"content_type", "status", "storage_url", "modified_at",
			}),
		}).Create(&out).Error
		if err != nil {
			return apperr.Internal(err)
		}
		// Reload: on conflict the returned id is the existing row's.
		if err := tx.Where("s3_key = ?", out.S3Key).First(&out).Error; err != nil {
			return apperr.Internal(err)
		}
		if out.CaseID != in.CaseID {
			return apperr.Conflict("storage key is already used by another case")
		}
		return audit.Record(ctx, tx, audit.ConfirmFile, audit.Details{
			"case_id": in.CaseID, "file_id": out.ID, "s3_key": out.S3Key,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// DownloadFile godoc
// @Summary      Download URL
// @Description  Resolve a temporary download URL from the file service
// @Tags         files
// @Produce      json
// @Param        fileId     path  string true  "file id"
// @Param        firm_code  query string false "firm code"
// @Success      200  {object}  DownloadResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      503  {object}  models.ErrorResponse
// @Router       /files/{fileId}/download [get]
func (h *Handler) DownloadFile(c *fiber.Ctx) error {
	fileID, err := parseID(c, "fileId")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}

	var n int64
	err = h.db.WithContext(ctx).Model(&models.CaseFile{}).
		Joins("JOIN cases ON cases.id = case_files.case_id").
		Where("case_files.id = ? AND cases.firm_id = ?", fileID, firm.ID).
		Count(&n).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if n == 0 {
		return apperr.NotFound("file not found")
	}

	url, err := h.files.DownloadURL(ctx, fileID)
	if err != nil {
		return err
	}
	return c.JSON(DownloadResponse{URL: url})
}
