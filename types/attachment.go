package types

// MaxAttachmentSizeBytes caps uploads at the HTTP boundary (5 MB).
const MaxAttachmentSizeBytes = 5 << 20

var ALLOWED_EXTENSIONS = map[string]string{"pdf": "pdf", "doc": "doc", "docx": "docx", "txt": "txt", "jpg": "jpg", "jpeg": "jpeg", "png": "png"}
