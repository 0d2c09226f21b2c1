package dto

// UpdateUserRequest changes profile fields; nil fields are left alone
type UpdateUserRequest struct {
	Email      *string `json:"email" binding:"omitempty,email"`
	Username   *string `json:"username" binding:"omitempty,min=3,max=50"`
	FirstName  *string `json:"firstName" binding:"omitempty,max=100"`
	LastName   *string `json:"lastName" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=30"`
	LocationID *uint   `json:"locationId"`
}

type VoiceProfileRequest struct {
	VoiceType string `json:"voiceType" binding:"required"`
	IsPrimary bool   `json:"isPrimary"`
}

// UpdateRolesRequest replaces the role set of a user
type UpdateRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,required"`
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}
