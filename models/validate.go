package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate проверяет обязательные поля бандла и диапазон процента раскатки.
func (b *Bundle) Validate() error {
	return validate.Struct(b)
}

// Validate проверяет частичное обновление бандла.
func (p *BundlePatch) Validate() error {
	return validate.Struct(p)
}

// Validate проверяет событие устройства.
func (e *DeviceEvent) Validate() error {
	return validate.Struct(e)
}
