package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 promhttp 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// splitResource 把 "{id}" 或 "{id}/{action}" 拆成两段
func splitResource(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	if id == "" || strings.Contains(action, "/") {
		return "", "", false
	}
	return id, action, true
}

// RegisterAllocationRoutes 分配/释放
func (r *Router) RegisterAllocationRoutes(h *AllocationHandler) {
	r.Handle("/api/v1/allocations", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Allocate(w, req)
	})

	// allocations/{id}/release
	r.Handle("/api/v1/allocations/", func(w http.ResponseWriter, req *http.Request) {
		id, action, ok := splitResource(req.URL.Path, "/api/v1/allocations/")
		if !ok || action != "release" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Release(w, req, id)
	})
}

// RegisterEmployeeRoutes 员工CRUD及其活跃分配查询
func (r *Router) RegisterEmployeeRoutes(h *EmployeeHandler) {
	r.Handle("/api/v1/employees", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// employees/{id} 与 employees/{id}/allocations
	r.Handle("/api/v1/employees/", func(w http.ResponseWriter, req *http.Request) {
		id, action, ok := splitResource(req.URL.Path, "/api/v1/employees/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch action {
		case "":
			switch req.Method {
			case http.MethodGet:
				h.Get(w, req, id)
			case http.MethodPut:
				h.Update(w, req, id)
			case http.MethodDelete:
				h.Delete(w, req, id)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case "allocations":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.Allocations(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterLineRoutes 线路/SIM卡CRUD、状态覆盖、历史查询与统计
func (r *Router) RegisterLineRoutes(h *LineHandler) {
	r.Handle("/api/v1/lines", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListLines(w, req)
		case http.MethodPost:
			h.CreateLine(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// lines/{id} 与 lines/{id}/status|allocations|history
	r.Handle("/api/v1/lines/", func(w http.ResponseWriter, req *http.Request) {
		id, action, ok := splitResource(req.URL.Path, "/api/v1/lines/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch action {
		case "":
			switch req.Method {
			case http.MethodGet:
				h.GetLine(w, req, id)
			case http.MethodDelete:
				h.DeleteLine(w, req, id)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case "status":
			if req.Method != http.MethodPut {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.OverrideStatus(w, req, id)
		case "allocations":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.LineAllocations(w, req, id)
		case "history":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.LineHistory(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.Handle("/api/v1/simcards", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListSIMCards(w, req)
		case http.MethodPost:
			h.CreateSIMCard(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/v1/simcards/", func(w http.ResponseWriter, req *http.Request) {
		id, action, ok := splitResource(req.URL.Path, "/api/v1/simcards/")
		if !ok || action != "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetSIMCard(w, req, id)
	})

	r.Handle("/api/v1/stats/status-counts", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.StatusCounts(w, req)
	})
}

// RegisterImportRoutes 批量导入
func (r *Router) RegisterImportRoutes(h *ImportHandler) {
	r.Handle("/api/v1/import", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Upload(w, req)
	})

	r.Handle("/api/v1/import/template", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Template(w, req)
	})
}

// RegisterHealthRoutes 健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}
