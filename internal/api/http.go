package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/victornm/quizconv/internal/convert"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/render"
	"github.com/victornm/quizconv/internal/sanitize"
	"github.com/victornm/quizconv/internal/stats"
)

const (
	HeaderCatalogID = "X-Catalog-Id"
	HeaderCache     = "X-Cache"
)

func (a *API) registerHTTP(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/conversions", a.createConversion)

	if a.catalogs != nil {
		v1.GET("/catalogs", a.listCatalogs)
		v1.GET("/catalogs/:id", a.getCatalog)
		v1.GET("/catalogs/:id/stats", a.getCatalogStats)
	}
}

func (a *API) createConversion(c *gin.Context) {
	req := convert.Request{Format: a.format}

	var err error
	req.Topics, req.TopicFile, err = a.formFile(c, "topics")
	if err != nil {
		abort(c, err)
		return
	}
	req.Questions, req.QuestionFile, err = a.formFile(c, "questions")
	if err != nil {
		abort(c, err)
		return
	}

	if f := c.PostForm("format"); f != "" {
		req.Format = render.Format(f)
	}
	if req.Sort, err = formBool(c, "sort"); err != nil {
		abort(c, err)
		return
	}
	if req.AllowUnknownVersion, err = formBool(c, "allow_unknown_version"); err != nil {
		abort(c, err)
		return
	}

	res, err := a.cs.Convert(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}

	f, _ := render.ParseFormat(string(req.Format))
	c.Header(HeaderCatalogID, res.CatalogID)
	c.Header(HeaderCache, cacheStatus(res.Cached))
	c.Data(http.StatusOK, f.ContentType(), res.Output)
}

func (a *API) listCatalogs(c *gin.Context) {
	cs, err := a.catalogs.List(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	for i := range cs {
		cs[i].TopicFile = sanitize.ToUTF8(cs[i].TopicFile)
		cs[i].QuestionFile = sanitize.ToUTF8(cs[i].QuestionFile)
	}
	c.JSON(http.StatusOK, gin.H{"catalogs": cs})
}

// getCatalog renders a stored catalog, as JSON unless ?format= says otherwise.
func (a *API) getCatalog(c *gin.Context) {
	f, err := render.ParseFormat(c.DefaultQuery("format", string(render.FormatJSON)))
	if err != nil {
		abort(c, err)
		return
	}

	cat, err := a.catalogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, cat.Topics, cat.Questions, f); err != nil {
		abort(c, err)
		return
	}

	c.Header(HeaderCatalogID, cat.CatalogID)
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}

func (a *API) getCatalogStats(c *gin.Context) {
	cat, err := a.catalogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	s := stats.Compute(cat.Topics, cat.Questions)
	for i := range s.ByTopic {
		s.ByTopic[i].Name = sanitize.ToUTF8(s.ByTopic[i].Name)
	}
	c.JSON(http.StatusOK, s)
}

func (a *API) formFile(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("missing file %q", field),
			errors.WithCause(err))
	}
	if fh.Size > a.maxUploadSize {
		return nil, "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("file %q exceeds %d bytes", field, a.maxUploadSize))
	}

	b, err := readFile(fh)
	if err != nil {
		return nil, "", errors.Internal(fmt.Errorf("read %s: %w", field, err))
	}
	return b, fh.Filename, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func formBool(c *gin.Context, field string) (bool, error) {
	v := c.PostForm(field)
	if v == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid %s: %q", field, v))
	}
	return b, nil
}

func cacheStatus(cached bool) string {
	if cached {
		return "HIT"
	}
	return "MISS"
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"path", c.FullPath(),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{
		"code":    codes.Code(e.Code).String(),
		"message": e.Message,
	})
}
