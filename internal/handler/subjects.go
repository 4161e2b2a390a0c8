package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kmf-ai/server/internal/model"
	"github.com/kmf-ai/server/internal/repository"
)

type SubjectsHandler struct {
	store repository.QuestionRepository
}

func NewSubjectsHandler(store repository.QuestionRepository) *SubjectsHandler {
	return &SubjectsHandler{store: store}
}

type subjectView struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func (h *SubjectsHandler) List(c *gin.Context) {
	subjects, err := h.store.Subjects(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]subjectView, 0, len(subjects))
	for _, s := range subjects {
		views = append(views, subjectView{Name: s, DisplayName: model.DisplayName(s)})
	}
	c.JSON(http.StatusOK, gin.H{"subjects": views})
}
