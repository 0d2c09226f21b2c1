package dto

type CreateLocationRequest struct {
	Name    string `json:"name" binding:"required,max=150"`
	Type    string `json:"type" binding:"max=50"`
	Address string `json:"address" binding:"max=255"`
	City    string `json:"city" binding:"max=100"`
	Region  string `json:"region" binding:"max=100"`
	Country string `json:"country" binding:"max=100"`
}

type UpdateLocationRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=150"`
	Type    *string `json:"type" binding:"omitempty,max=50"`
	Address *string `json:"address" binding:"omitempty,max=255"`
	City    *string `json:"city" binding:"omitempty,max=100"`
	Region  *string `json:"region" binding:"omitempty,max=100"`
	Country *string `json:"country" binding:"omitempty,max=100"`
}
