// Package mapstyle loads style documents into an in-memory map state.
//
// A style document is an XML file describing a map's background, its named
// styles (rules made of polygon, line, and marker symbolizers), its layers and
// the data source feeding each layer, plus free-form extra parameters:
//
//	<Map background-color="#ffffff">
//	  <Parameters>
//	    <Parameter name="sizes">256x256</Parameter>
//	  </Parameters>
//	  <Style name="water">
//	    <Rule><PolygonSymbolizer fill="#9ecae1"/></Rule>
//	  </Style>
//	  <Layer name="lakes">
//	    <StyleName>water</StyleName>
//	    <Datasource>
//	      <Parameter name="type">geojson</Parameter>
//	      <Parameter name="file">lakes.geojson</Parameter>
//	    </Datasource>
//	  </Layer>
//	</Map>
//
// # Data sources
//
// Layers are fed by one of the registered data source types:
//
//   - geojson: a GeoJSON file or inline document
//   - csv: points read from x/y (or lon/lat) columns
//   - mongodb: GeoJSON geometries stored under a "geometry" field
//   - redis: members of a GEO set
//
// A data source that cannot be created (unknown type, missing file,
// unreachable server) fails with code DATASOURCE_UNAVAILABLE; every other
// load failure has code STYLE_LOAD.
//
// # Map state
//
// [Map] is the mutable view that renderers read: its pixel size, its
// current view box and its content. Callers resize and zoom it between
// renders with [Map.Resize], [Map.ZoomToBox] and [Map.ZoomAll].
package mapstyle
