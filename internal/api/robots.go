package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finchrobotics/fleet-core/internal/fleet"
)

// handleListRobots returns the fused state of every known robot,
// sorted by robot ID.
//
// GET /api/v1/robots
func (s *Server) handleListRobots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.SnapshotAll())
}

// handleGetRobot returns the fused state of a single robot.
//
// GET /api/v1/robots/{id}
func (s *Server) handleGetRobot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	robot, err := s.cache.SnapshotOne(id)
	if err != nil {
		if errors.Is(err, fleet.ErrRobotNotFound) {
			writeNotFound(w, "robot not found: "+id)
			return
		}
		s.logger.Error("reading robot snapshot", "robot_id", id, "error", err)
		writeInternalError(w, "reading robot state")
		return
	}

	writeJSON(w, http.StatusOK, robot)
}
