package chesserp

// FieldAliases maps a semantic field to the raw key spellings ChessERP has
// been observed to use for it, in priority order. The backend has shipped at
// least a dozen spellings for the article id alone (case variants,
// underscores, Spanish synonyms, accented header-style names), so lookups
// treat this as configuration data rather than a schema. The lists are
// empirical and deliberately open-ended: extend them when a deployment
// surfaces a new spelling, the traversal code does not change.
type FieldAliases []string

var (
	AliasArticleID = FieldAliases{
		"idArticulo", "id_articulo", "idarticulo",
		"codArt", "codigoArticulo", "Código de Artículo", "Codigo de Articulo",
		"codigo", "Código", "articulo", "Artículo", "id",
	}
	AliasDescription = FieldAliases{
		"desArticulo", "des_articulo", "descripcion", "Descripción",
		"detalle", "nombre",
	}
	AliasUnitsPerPack = FieldAliases{
		"unidadesPorBulto", "unidadesXBulto", "uniXBulto", "uxb", "bulto",
	}
	AliasBarcode = FieldAliases{
		"codBarra", "codigoBarra", "codigoDeBarras", "ean",
	}
	AliasQuantity = FieldAliases{
		"cantidad", "unidades", "cant",
	}
	AliasPriceFinal = FieldAliases{
		"precioFinal", "precioVenta", "precio", "importe",
	}
	AliasPriceList = FieldAliases{
		"lista", "listaPrecio", "idLista",
	}
	AliasStockUnits = FieldAliases{
		"stockUnidades", "stockFisico", "existencia", "stock", "unidades",
	}
	AliasDeposit = FieldAliases{
		"idDeposito", "deposito", "Depósito",
	}
	// keys the login response may carry its credential under
	aliasSessionToken = FieldAliases{
		"sessionId", "token", "access_token", "JSESSIONID", "jsessionid",
	}
)

// recordMarkers decide whether an object node is a domain record rather than
// an envelope: it is one if any marker field resolves to a usable scalar.
var recordMarkers = []FieldAliases{
	AliasArticleID,
	AliasDescription,
	AliasQuantity,
	AliasPriceFinal,
}

// Container keys suspected of wrapping the record list, tried in order
// before falling back to a blind scan of the payload's values. The e*/ds*
// names are the dataset envelopes of the ChessERP web API, the rest are
// generic wrappers seen across deployments.
var (
	ArticleContainers = []string{
		"eArticulos", "dsArticulosApi", "articulos",
		"items", "data", "resultado", "resultados", "rows", "records",
	}
	PriceContainers = []string{
		"eListaPrecios", "dsListaPreciosApi", "precios", "lista",
		"items", "detalle", "articulos", "data", "resultado", "resultados",
		"rows", "records",
	}
	StockContainers = []string{
		"eStockFisico", "dsStockApi", "stock",
		"items", "data", "resultado", "resultados", "rows", "records",
	}
)
