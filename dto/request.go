package dto

import "errors"

// StartConsultationRequest starts a new batch consultation.
type StartConsultationRequest struct {
	Vehicles []Vehicle `json:"veiculos" binding:"required"`
}

// Validate performs basic validation on the request
func (r *StartConsultationRequest) Validate() error {
	if len(r.Vehicles) == 0 {
		return ErrNoVehicles
	}
	for _, v := range r.Vehicles {
		if len(v.Plate) != 7 {
			return errors.New("placa must have exactly 7 characters: " + v.Plate)
		}
		if v.Renavam == "" {
			return errors.New("renavam is required for plate " + v.Plate)
		}
	}
	return nil
}
