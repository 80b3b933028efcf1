package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/newslyhq/newsly/internal/data"
	"github.com/newslyhq/newsly/internal/storage"
	"github.com/newslyhq/newsly/internal/upload"
	"github.com/newslyhq/newsly/internal/validator"
)

// showArticleHandler shows a single article.
func (app *application) showArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "articleId")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	article, err := app.models.Articles.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	err = app.encodeJSON(w, http.StatusOK, envelope{"article": article}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateArticleImageHandler validates an uploaded image against the
// configured constraints and stores it through the resolved storage backend.
func (app *application) updateArticleImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "articleId")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	article, err := app.models.Articles.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// Cap the request body at the upload ceiling plus some slack for the
	// multipart framing, so oversize uploads fail early.
	r.Body = http.MaxBytesReader(w, r.Body, app.config.Upload.MaxFileSize+1_048_576)
	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("the request must contain an 'image' form file"))
		return
	}
	defer file.Close()

	v := validator.New()
	upload.Validate(v, app.uploadRules(), fileHeader.Filename, fileHeader.Size)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	// Read the file once so the content type can be sniffed before upload.
	buffer := make([]byte, fileHeader.Size)
	_, err = file.Read(buffer)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	mtype := mimetype.Detect(buffer)

	key, err := randomKey(fmt.Sprintf("articles/%d", article.ID), filepath.Ext(fileHeader.Filename))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	url, err := app.storage.Put(r.Context(), key, bytes.NewReader(buffer), mtype.String())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	article.ImageURL = url
	err = app.models.Articles.SetImage(article)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	err = app.encodeJSON(w, http.StatusOK, envelope{"article": article}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteArticleImageHandler removes an article's stored image.
func (app *application) deleteArticleImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "articleId")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}
	article, err := app.models.Articles.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	if article.ImageURL == "" {
		app.notFoundResponse(w, r)
		return
	}

	key := app.storageKeyFromURL(article.ImageURL)
	err = app.storage.Delete(r.Context(), key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		app.serverErrorResponse(w, r, err)
		return
	}

	article.ImageURL = ""
	err = app.models.Articles.SetImage(article)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	err = app.encodeJSON(w, http.StatusOK, envelope{"message": "article image deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// storageKeyFromURL recovers the object key from a stored media URL,
// whichever backend produced it.
func (app *application) storageKeyFromURL(url string) string {
	if i := strings.Index(url, ".amazonaws.com/"); i != -1 {
		return url[i+len(".amazonaws.com/"):]
	}
	return strings.TrimPrefix(url, app.config.Storage.MediaURL)
}
