package model

import (
	"strings"

	"github.com/icastellano/oppanel/internal/normalize"
)

// RecordField names one attribute of a Record for alias resolution.
type RecordField string

// Record fields addressable through the alias table.
const (
	FieldID       RecordField = "id"
	FieldOpenDate RecordField = "open_date"
	FieldBuyer    RecordField = "buyer"
	FieldTitle    RecordField = "title"
	FieldPlatform RecordField = "platform"
	FieldOperator RecordField = "operator"
	FieldAccount  RecordField = "account"
	FieldCategory RecordField = "category"
	FieldProvince RecordField = "province"
	FieldProcess  RecordField = "process"
	FieldStatus   RecordField = "status"
	FieldQuantity RecordField = "quantity"
	FieldLink     RecordField = "link"
)

// RecordFieldAliases declares, per Record field, the upstream key spellings
// accepted when decoding a raw payload. Sources disagree on naming, so the
// tolerance lives here rather than in inline fallback chains; aliases are
// matched after CanonicalKey.
var RecordFieldAliases = map[RecordField][]string{
	FieldID:       {"numero", "número", "id", "nro_proceso", "id_proceso"},
	FieldOpenDate: {"apertura", "fecha_apertura", "apertura_txt", "fecha", "data_abertura", "date"},
	FieldBuyer:    {"reparticion", "repartición", "comprador", "cliente", "hospital", "buyer"},
	FieldTitle:    {"objeto", "descripcion", "producto", "title"},
	FieldPlatform: {"plataforma", "portal", "platform"},
	FieldOperator: {"operador", "operator"},
	FieldAccount:  {"cuenta", "account"},
	FieldCategory: {"tipo", "tipo_proceso", "categoria", "familia", "category"},
	FieldProvince: {"provincia", "province"},
	FieldProcess:  {"uape", "n_uape", "unidad_compra", "cod_uape", "process_id", "id_pedido"},
	FieldStatus:   {"estado", "status"},
	FieldQuantity: {"cantidad", "quantity", "monto", "importe"},
	FieldLink:     {"enlace", "enlace_de_pliego", "url", "link"},
}

// RecordFieldOrder fixes the order fields are resolved in when decoding a
// raw row, so a row carrying two alias spellings of one field always picks
// the same winner.
var RecordFieldOrder = []RecordField{
	FieldID,
	FieldOpenDate,
	FieldBuyer,
	FieldTitle,
	FieldPlatform,
	FieldOperator,
	FieldAccount,
	FieldCategory,
	FieldProvince,
	FieldProcess,
	FieldStatus,
	FieldQuantity,
	FieldLink,
}

var keyReplacer = strings.NewReplacer("°", "", "º", "", ".", "", " ", "_", "-", "_")

// CanonicalKey folds an upstream payload key into the form alias entries are
// matched against.
func CanonicalKey(key string) string {
	return keyReplacer.Replace(normalize.Fold(key))
}

var aliasIndex = func() map[string]RecordField {
	idx := make(map[string]RecordField)
	for field, aliases := range RecordFieldAliases {
		for _, alias := range aliases {
			idx[CanonicalKey(alias)] = field
		}
	}
	return idx
}()

// FieldForKey resolves an upstream payload key to the Record field it feeds,
// or "" when no alias matches.
func FieldForKey(key string) RecordField {
	return aliasIndex[CanonicalKey(key)]
}
