package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/service"
)

// maxImportBytes 导入文件大小上限（10MB）
const maxImportBytes = 10 << 20

// ImportHandler 批量导入（multipart上传）与模板下载
type ImportHandler struct {
	importer *service.ImportService
	logger   *zap.Logger
}

func NewImportHandler(importer *service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{importer: importer, logger: logger}
}

// Upload POST /api/v1/import — multipart表单，字段名 file
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("missing 'file' field"))
		return
	}
	defer file.Close()

	summary, err := h.importer.ImportFile(r.Context(), header.Filename, file, principalID(r))
	if err != nil {
		h.logger.Warn("import rejected",
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

// Template GET /api/v1/import/template — 下载导入模板
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := h.importer.GenerateImportTemplate()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="lineops_import_template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
