package catalog

var commonAllow = []string{"allow", "разрешить", "ок", "ok", "да"}

var commonDeny = []string{"deny", "запретить", "отклонить", "нет", "no", "отмена", "cancel"}

// files is the photo library access prompt ("Разрешить полный доступ к медиатеке").
var files = Definition{
	Type:     "Files",
	Identify: []string{"медиатеке", "фото и видео"},
	Allow:    []string{"Разрешить полный доступ"},
	Deny:     []string{"Не разрешать"},
}

// camera is the camera access prompt.
var camera = Definition{
	Type: "Camera",
	Identify: []string{
		"camera", "камера", "фото", "снимки", "съемк",
		"доступ к камере", "разрешить доступ",
		"would like to access the camera",
		"wants to use your camera",
		"would like to access your camera",
	},
	Allow: commonAllow,
	Deny:  commonDeny,
}

// notifications is the push notification prompt.
var notifications = Definition{
	Type: "Notifications",
	Identify: []string{
		"notification", "уведомлен", "сообщен",
		"присылать", "отправлять", "push",
		"would like to send you notifications",
		"wants to send you notifications",
		"permission to send you notifications",
	},
	Allow: commonAllow,
	Deny:  commonDeny,
}

// Default returns the built-in catalog. Files comes before Camera because
// the library prompt mentions "фото", which is also a Camera keyword.
func Default() *Catalog {
	return New(files, camera, notifications)
}
