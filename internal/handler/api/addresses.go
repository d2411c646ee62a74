package api

import (
	"net/http"

	"github.com/dukerupert/souk/internal/address"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/handler"
)

// AddressHandler lists a shopper's saved addresses and validates new ones.
type AddressHandler struct {
	addresses domain.AddressRepository
	validator address.Validator
}

// NewAddressHandler creates an address handler. addresses may be nil when
// no address book is configured.
func NewAddressHandler(addresses domain.AddressRepository, validator address.Validator) *AddressHandler {
	return &AddressHandler{addresses: addresses, validator: validator}
}

// List handles GET /api/addresses.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := shopperID(w, r)
	if !ok {
		return
	}

	list := []domain.Address{}
	if h.addresses != nil {
		found, err := h.addresses.ListAddresses(r.Context(), owner.String())
		if err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
		if found != nil {
			list = found
		}
	}

	handler.WriteJSON(w, r, http.StatusOK, map[string]any{"addresses": list})
}

// Validate handles POST /api/addresses/validate. It always answers 200
// with the validation result; invalid addresses are reported in the body.
func (h *AddressHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var addr domain.Address
	if err := handler.ReadJSON(r, &addr); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.validator.Validate(r.Context(), addr)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, r, http.StatusOK, result)
}
