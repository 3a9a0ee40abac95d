package server

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krau/tagpipe/service"
	"github.com/krau/tagpipe/tagging"
)

var (
	errUnauthorized = errors.New("unauthorized")
)

type Server struct {
	tagger *service.Tagger
	token  string
	logger *slog.Logger
}

func New(tagger *service.Tagger, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{tagger: tagger, token: token, logger: logger}
}

// Router registers the HTTP routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", s.HealthHandler)

	authed := r.Group("/", s.authMiddleware)
	authed.POST("/predict", s.PredictHandler)
	authed.POST("/tags", s.TagsHandler)
	return r
}

func (s *Server) authenticate(c *gin.Context) error {
	if s.token == "" {
		return nil
	}
	auth := c.GetHeader("Authorization")
	providedToken := ""
	if len(auth) > 7 && auth[:7] == "Bearer " {
		providedToken = auth[7:]
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(s.token)) != 1 {
		return errUnauthorized
	}
	return nil
}

func (s *Server) authMiddleware(c *gin.Context) {
	if err := s.authenticate(c); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}
	c.Next()
}

func (s *Server) PredictHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	img, err := service.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot decode image"})
		return
	}

	resp, err := s.tagger.Predict(c.Request.Context(), img)
	if err != nil {
		s.logger.Error("Prediction failed", slog.String("file", fileHeader.Filename), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}
	s.logWarnings(fileHeader.Filename, resp)
	c.JSON(http.StatusOK, resp)
}

type tagsRequest struct {
	Scores     []float32        `json:"scores"`
	Candidates []tagging.Scored `json:"candidates"`
}

// TagsHandler runs the pipeline on a score vector computed elsewhere. Either a
// dense "scores" array in catalog order or a thresholded "candidates" list is
// accepted.
func (s *Server) TagsHandler(c *gin.Context) {
	var req tagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pipeline := s.tagger.Pipeline()
	var resp tagging.Result
	switch {
	case req.Scores != nil:
		var err error
		resp, err = pipeline.Run(req.Scores)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	case req.Candidates != nil:
		resp = pipeline.RunScored(req.Candidates)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scores or candidates required"})
		return
	}
	s.logWarnings("", resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) logWarnings(source string, res tagging.Result) {
	for _, w := range res.Warnings {
		s.logger.Debug("Tag rule warning", slog.String("source", source), slog.String("rule", w.Rule), slog.Any("tags", w.Tags))
	}
}
