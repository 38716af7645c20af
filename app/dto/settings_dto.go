package dto

type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
	Messages map[string]string `json:"messages"`
}

type UpdateSettingsRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1,dive,keys,min=1,max=128,endkeys,max=4096"`
}

type UpdateMessagesRequest struct {
	Texts map[string]string `json:"texts" validate:"required,min=1,dive,keys,min=1,max=128,endkeys,required,max=4096"`
}
