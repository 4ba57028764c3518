package http

import (
	nethttp "net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/tracking"
)

func clientsHandler(defaultLimit int, svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultLimit)
			start := time.Now()
			items, err := svc.Store().ListClients(r.Context(), limit)
			recordDBQuery(storeConnector, "ListClients", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "list clients", err)
				return
			}
			writeList(w, limit, items)
		case nethttp.MethodPost:
			var c lab.Client
			if err := decodeJSON(r, &c); err != nil {
				writeError(w, logger, "create client", err)
				return
			}
			c.ID = ""
			start := time.Now()
			err := svc.Store().CreateClient(r.Context(), &c)
			recordDBQuery(storeConnector, "CreateClient", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "create client", err)
				return
			}
			writeData(w, nethttp.StatusCreated, c)
		default:
			methodNotAllowed(w)
		}
	}
}

func clientDetailRouter(svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/clients/")
		if len(parts) != 1 {
			notFound(w)
			return
		}
		id := parts[0]
		st := svc.Store()

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			c, err := st.GetClient(r.Context(), id)
			recordDBQuery(storeConnector, "GetClient", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "fetch client", err)
				return
			}
			writeData(w, nethttp.StatusOK, c)
		case nethttp.MethodPut:
			c, err := st.GetClient(r.Context(), id)
			if err != nil {
				writeError(w, logger, "fetch client", err)
				return
			}
			if err := decodeJSON(r, c); err != nil {
				writeError(w, logger, "update client", err)
				return
			}
			c.ID = id
			start := time.Now()
			err = st.UpdateClient(r.Context(), c)
			recordDBQuery(storeConnector, "UpdateClient", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "update client", err)
				return
			}
			writeData(w, nethttp.StatusOK, c)
		case nethttp.MethodDelete:
			start := time.Now()
			err := st.DeleteClient(r.Context(), id)
			recordDBQuery(storeConnector, "DeleteClient", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "delete client", err)
				return
			}
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	}
}

func projectsHandler(defaultLimit int, svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultLimit)
			clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
			start := time.Now()
			items, err := svc.Store().ListProjects(r.Context(), clientID, limit)
			recordDBQuery(storeConnector, "ListProjects", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "list projects", err)
				return
			}
			writeList(w, limit, items)
		case nethttp.MethodPost:
			var p lab.Project
			if err := decodeJSON(r, &p); err != nil {
				writeError(w, logger, "create project", err)
				return
			}
			p.ID = ""
			start := time.Now()
			err := svc.Store().CreateProject(r.Context(), &p)
			recordDBQuery(storeConnector, "CreateProject", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "create project", err)
				return
			}
			writeData(w, nethttp.StatusCreated, p)
		default:
			methodNotAllowed(w)
		}
	}
}

func projectDetailRouter(svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/projects/")
		if len(parts) == 0 || len(parts) > 2 {
			notFound(w)
			return
		}
		id := parts[0]
		st := svc.Store()

		if len(parts) == 2 {
			if parts[1] != "next-sample-number" {
				notFound(w)
				return
			}
			if r.Method != nethttp.MethodGet {
				methodNotAllowed(w)
				return
			}
			start := time.Now()
			next, err := svc.NextSampleNumber(r.Context(), id, r.URL.Query().Get("prefix"))
			recordDBQuery(storeConnector, "NextSampleNumber", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "compute next sample number", err)
				return
			}
			writeData(w, nethttp.StatusOK, next)
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			p, err := st.GetProject(r.Context(), id)
			recordDBQuery(storeConnector, "GetProject", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "fetch project", err)
				return
			}
			writeData(w, nethttp.StatusOK, p)
		case nethttp.MethodPut:
			p, err := st.GetProject(r.Context(), id)
			if err != nil {
				writeError(w, logger, "fetch project", err)
				return
			}
			if err := decodeJSON(r, p); err != nil {
				writeError(w, logger, "update project", err)
				return
			}
			p.ID = id
			start := time.Now()
			err = st.UpdateProject(r.Context(), p)
			recordDBQuery(storeConnector, "UpdateProject", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "update project", err)
				return
			}
			writeData(w, nethttp.StatusOK, p)
		case nethttp.MethodDelete:
			start := time.Now()
			err := svc.DeleteProject(r.Context(), id)
			recordDBQuery(storeConnector, "DeleteProject", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "delete project", err)
				return
			}
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	}
}

func jobsHandler(defaultLimit int, svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultLimit)
			projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))
			start := time.Now()
			items, err := svc.Store().ListJobs(r.Context(), projectID, limit)
			recordDBQuery(storeConnector, "ListJobs", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "list jobs", err)
				return
			}
			writeList(w, limit, items)
		case nethttp.MethodPost:
			var j lab.Job
			if err := decodeJSON(r, &j); err != nil {
				writeError(w, logger, "create job", err)
				return
			}
			start := time.Now()
			created, err := svc.CreateJob(r.Context(), j)
			recordDBQuery(storeConnector, "CreateJob", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "create job", err)
				return
			}
			writeData(w, nethttp.StatusCreated, created)
		default:
			methodNotAllowed(w)
		}
	}
}

func jobDetailRouter(svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/jobs/")
		if len(parts) == 0 || len(parts) > 2 {
			notFound(w)
			return
		}
		id := parts[0]
		st := svc.Store()

		if len(parts) == 2 {
			if parts[1] != "status" {
				notFound(w)
				return
			}
			if r.Method != nethttp.MethodGet {
				methodNotAllowed(w)
				return
			}
			if _, err := st.GetJob(r.Context(), id); err != nil {
				writeError(w, logger, "fetch job", err)
				return
			}
			start := time.Now()
			status, err := svc.RefreshJobStatus(r.Context(), id)
			recordDBQuery(storeConnector, "RefreshJobStatus", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "derive job status", err)
				return
			}
			writeData(w, nethttp.StatusOK, map[string]any{"job_id": id, "status": status})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			j, err := st.GetJob(r.Context(), id)
			recordDBQuery(storeConnector, "GetJob", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "fetch job", err)
				return
			}
			writeData(w, nethttp.StatusOK, j)
		case nethttp.MethodPut:
			var details tracking.JobDetails
			if err := decodeJSON(r, &details); err != nil {
				writeError(w, logger, "update job", err)
				return
			}
			start := time.Now()
			j, err := svc.UpdateJob(r.Context(), id, details)
			recordDBQuery(storeConnector, "UpdateJob", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "update job", err)
				return
			}
			writeData(w, nethttp.StatusOK, j)
		case nethttp.MethodDelete:
			start := time.Now()
			err := svc.DeleteJob(r.Context(), id)
			recordDBQuery(storeConnector, "DeleteJob", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "delete job", err)
				return
			}
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	}
}

func equipmentHandler(defaultLimit int, svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultLimit)
			kind := strings.TrimSpace(r.URL.Query().Get("kind"))
			start := time.Now()
			items, err := svc.Store().ListEquipment(r.Context(), kind, limit)
			recordDBQuery(storeConnector, "ListEquipment", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "list equipment", err)
				return
			}
			writeList(w, limit, items)
		case nethttp.MethodPost:
			var e lab.Equipment
			if err := decodeJSON(r, &e); err != nil {
				writeError(w, logger, "create equipment", err)
				return
			}
			e.ID = ""
			start := time.Now()
			err := svc.Store().CreateEquipment(r.Context(), &e)
			recordDBQuery(storeConnector, "CreateEquipment", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "create equipment", err)
				return
			}
			writeData(w, nethttp.StatusCreated, e)
		default:
			methodNotAllowed(w)
		}
	}
}

func usersHandler(defaultLimit int, svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultLimit)
			start := time.Now()
			items, err := svc.Store().ListUsers(r.Context(), limit)
			recordDBQuery(storeConnector, "ListUsers", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "list users", err)
				return
			}
			writeList(w, limit, items)
		case nethttp.MethodPost:
			var u lab.User
			if err := decodeJSON(r, &u); err != nil {
				writeError(w, logger, "create user", err)
				return
			}
			u.ID = ""
			start := time.Now()
			err := svc.Store().CreateUser(r.Context(), &u)
			recordDBQuery(storeConnector, "CreateUser", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "create user", err)
				return
			}
			writeData(w, nethttp.StatusCreated, u)
		default:
			methodNotAllowed(w)
		}
	}
}
