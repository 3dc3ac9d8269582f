package engine

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/thrasher-corp/tallerd/core"
	"github.com/thrasher-corp/tallerd/database/repository/turn"
	"github.com/thrasher-corp/tallerd/database/repository/workshop"
)

// createTurnRequest is the public turn intake body
type createTurnRequest struct {
	NombreCliente       string `json:"nombreCliente"`
	Telefono            string `json:"telefono"`
	ModeloVehiculo      string `json:"modeloVehiculo"`
	Patente             string `json:"patente"`
	DescripcionProblema string `json:"descripcionProblema"`
}

type cancelByPlateRequest struct {
	Patente string `json:"patente"`
}

type createTurnResponse struct {
	ID          string `json:"id"`
	NumeroTurno int64  `json:"numeroTurno"`
	Estado      string `json:"estado"`
}

type turnSummary struct {
	NumeroTurno int64  `json:"numeroTurno"`
	Estado      string `json:"estado"`
}

type statusResponse struct {
	Taller    string        `json:"taller"`
	Capacidad int64         `json:"capacidad"`
	EnTaller  []turnSummary `json:"enTaller"`
	EnEspera  []turnSummary `json:"enEspera"`
}

// turnDetail is the full turn representation on the admin listing
type turnDetail struct {
	ID                  string `json:"id"`
	NumeroTurno         int64  `json:"numeroTurno"`
	NombreCliente       string `json:"nombreCliente"`
	Telefono            string `json:"telefono"`
	ModeloVehiculo      string `json:"modeloVehiculo"`
	Patente             string `json:"patente"`
	DescripcionProblema string `json:"descripcionProblema,omitempty"`
	Estado              string `json:"estado"`
	CreadoEn            string `json:"creadoEn"`
	IniciadoEn          string `json:"iniciadoEn,omitempty"`
	FinalizadoEn        string `json:"finalizadoEn,omitempty"`
	CanceladoEn         string `json:"canceladoEn,omitempty"`
}

type listTurnsResponse struct {
	Turnos []turnDetail `json:"turnos"`
}

type workshopDetail struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion,omitempty"`
	Logo      string `json:"logo,omitempty"`
	Capacidad int64  `json:"capacidad"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type cancelResponse struct {
	NumeroTurno int64  `json:"numeroTurno"`
	Message     string `json:"message"`
}

type indexResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// getIndex replies with the service identity and uptime
func (m *APIServerManager) getIndex(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, http.StatusOK, &indexResponse{
		Service: "tallerd",
		Version: strings.TrimSpace(core.Version(true)),
		Uptime:  time.Since(m.startTime).Truncate(time.Second).String(),
	})
}

// createTurn issues a new turn for the workshop in the path
func (m *APIServerManager) createTurn(w http.ResponseWriter, r *http.Request) {
	var body createTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, NewError(KindValidation, "malformed request body"))
		return
	}
	if len(strings.TrimSpace(body.NombreCliente)) < 2 {
		writeError(w, r, NewError(KindValidation, "nombreCliente must be at least 2 characters"))
		return
	}

	t, err := m.queue.RequestTurn(r.Context(), mux.Vars(r)["workshop"], &TurnRequest{
		CustomerName: body.NombreCliente,
		Phone:        body.Telefono,
		VehicleModel: body.ModeloVehiculo,
		Plate:        body.Patente,
		Problem:      body.DescripcionProblema,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusCreated, &createTurnResponse{
		ID:          t.ID,
		NumeroTurno: t.TurnNumber,
		Estado:      t.State,
	})
}

// getStatus returns the live queue snapshot of a workshop
func (m *APIServerManager) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := m.queue.Status(r.Context(), mux.Vars(r)["workshop"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := &statusResponse{
		Taller:    status.Workshop.Name,
		Capacidad: status.Workshop.Capacity,
		EnTaller:  make([]turnSummary, 0, len(status.InService)),
		EnEspera:  make([]turnSummary, 0, len(status.Waiting)),
	}
	for i := range status.InService {
		resp.EnTaller = append(resp.EnTaller, turnSummary{
			NumeroTurno: status.InService[i].TurnNumber,
			Estado:      status.InService[i].State,
		})
	}
	for i := range status.Waiting {
		resp.EnEspera = append(resp.EnEspera, turnSummary{
			NumeroTurno: status.Waiting[i].TurnNumber,
			Estado:      status.Waiting[i].State,
		})
	}
	writeResult(w, r, http.StatusOK, resp)
}

// getTurns lists a workshop's turns, optionally filtered by plate substring
func (m *APIServerManager) getTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := m.queue.List(r.Context(), mux.Vars(r)["workshop"], r.URL.Query().Get("patente"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := &listTurnsResponse{Turnos: make([]turnDetail, 0, len(turns))}
	for i := range turns {
		resp.Turnos = append(resp.Turnos, detailFromTurn(&turns[i]))
	}
	writeResult(w, r, http.StatusOK, resp)
}

// finalizeTurn completes an in-service turn
func (m *APIServerManager) finalizeTurn(w http.ResponseWriter, r *http.Request) {
	_, err := m.queue.Finalize(r.Context(), mux.Vars(r)["turn"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, &messageResponse{Message: msgTurnFinalized})
}

// cancelTurnByPlate withdraws the active turn holding the presented plate
func (m *APIServerManager) cancelTurnByPlate(w http.ResponseWriter, r *http.Request) {
	var body cancelByPlateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, NewError(KindValidation, "malformed request body"))
		return
	}
	t, err := m.queue.CancelByPlate(r.Context(), mux.Vars(r)["workshop"], body.Patente)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, &cancelResponse{
		NumeroTurno: t.TurnNumber,
		Message:     msgTurnCancelled,
	})
}

// getWorkshops lists the workshop directory
func (m *APIServerManager) getWorkshops(w http.ResponseWriter, r *http.Request) {
	all, err := m.workshops.All()
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]workshopDetail, 0, len(all))
	for i := range all {
		resp = append(resp, detailFromWorkshop(&all[i]))
	}
	writeResult(w, r, http.StatusOK, resp)
}

func detailFromTurn(t *turn.Details) turnDetail {
	d := turnDetail{
		ID:                  t.ID,
		NumeroTurno:         t.TurnNumber,
		NombreCliente:       t.CustomerName,
		Telefono:            t.Phone,
		ModeloVehiculo:      t.VehicleModel,
		Patente:             t.Plate,
		DescripcionProblema: t.Problem,
		Estado:              t.State,
		CreadoEn:            formatTimestamp(t.CreatedAt),
	}
	if !t.StartedAt.IsZero() {
		d.IniciadoEn = formatTimestamp(t.StartedAt)
	}
	if !t.FinalizedAt.IsZero() {
		d.FinalizadoEn = formatTimestamp(t.FinalizedAt)
	}
	if !t.CancelledAt.IsZero() {
		d.CanceladoEn = formatTimestamp(t.CancelledAt)
	}
	return d
}

func detailFromWorkshop(w *workshop.Details) workshopDetail {
	return workshopDetail{
		ID:        w.ID,
		Nombre:    w.Name,
		Direccion: w.Address,
		Logo:      w.Logo,
		Capacidad: w.Capacity,
	}
}

// formatTimestamp renders a UTC timestamp at second precision
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
